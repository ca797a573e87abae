package engine

import "github.com/go-gl/mathgl/mgl64"

// PieceID identifies a piece within an episode.
type PieceID uint64

// Piece is one placed object.
type Piece struct {
	ID       PieceID
	Kind     Kind
	Owner    Party      // Party that controlled the piece when it spawned
	Pos      mgl64.Vec2 // Center position; z is constant and not tracked
	Rotation float64    // Degrees around z
	Settled  bool       // Dropped; no longer under direct control
	Fallen   bool       // Physics reported a failure after the drop
	Frozen   bool       // Game over; ignores all further control
}

// Controllable reports whether transform writes are still accepted.
func (p *Piece) Controllable() bool {
	return p != nil && !p.Settled && !p.Frozen
}

// Registry is the append-only list of pieces created during an episode.
type Registry struct {
	pieces []*Piece
	nextID PieceID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pieces: make([]*Piece, 0, 32),
		nextID: 1,
	}
}

// Add appends a new unsettled piece and returns it.
func (r *Registry) Add(kind Kind, owner Party, pos mgl64.Vec2) *Piece {
	p := &Piece{
		ID:    r.nextID,
		Kind:  kind,
		Owner: owner,
		Pos:   pos,
	}
	r.nextID++
	r.pieces = append(r.pieces, p)
	return p
}

// Len returns the number of pieces.
func (r *Registry) Len() int {
	return len(r.pieces)
}

// At returns the i-th piece in insertion order.
func (r *Registry) At(i int) *Piece {
	return r.pieces[i]
}

// All returns the pieces in insertion order. The slice must not be modified.
func (r *Registry) All() []*Piece {
	return r.pieces
}

// Get looks a piece up by ID.
func (r *Registry) Get(id PieceID) (*Piece, bool) {
	for _, p := range r.pieces {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// FirstFallen returns the first piece flagged as fallen.
func (r *Registry) FirstFallen() (*Piece, bool) {
	for _, p := range r.pieces {
		if p.Fallen {
			return p, true
		}
	}
	return nil, false
}

// PlacedBy counts pieces spawned for the given party.
func (r *Registry) PlacedBy(owner Party) int {
	n := 0
	for _, p := range r.pieces {
		if p.Owner == owner {
			n++
		}
	}
	return n
}

// Release hands every piece to fn (for destruction) and empties the registry.
// IDs keep increasing across releases so stale references never alias.
func (r *Registry) Release(fn func(*Piece)) {
	for _, p := range r.pieces {
		if fn != nil {
			fn(p)
		}
	}
	clear(r.pieces)
	r.pieces = r.pieces[:0]
}
