package dmn

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"infinity/internal/domain"
)

// Node box size on the canvas.
const (
	NodeWidth  = 140.0
	NodeHeight = 60.0
)

var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrInvalidNodeType = errors.New("invalid node type")
)

type mode int

const (
	modeIdle mode = iota
	modeDragging
	modeConnecting
)

// Pending is the connection being drawn, if any.
type Pending struct {
	From string  `json:"from"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Graph is a DMN diagram with its pointer interaction state.
type Graph struct {
	mu      sync.Mutex
	nodes   []domain.Node
	edges   []domain.Edge
	mode    mode
	target  string
	lastX   float64
	lastY   float64
	pending *Pending
	newID   func() string
}

type View struct {
	Nodes    []domain.Node `json:"nodes"`
	Edges    []domain.Edge `json:"edges"`
	Dragging string        `json:"dragging,omitempty"`
	Pending  *Pending      `json:"pending,omitempty"`
}

func NewGraph() *Graph {
	return &Graph{newID: uuid.NewString}
}

func (g *Graph) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := View{
		Nodes: append([]domain.Node{}, g.nodes...),
		Edges: append([]domain.Edge{}, g.edges...),
	}
	if g.mode == modeDragging {
		v.Dragging = g.target
	}
	if g.pending != nil {
		p := *g.pending
		v.Pending = &p
	}
	return v
}

func ParseNodeType(v string) (domain.NodeType, error) {
	switch t := domain.NodeType(v); t {
	case domain.NodeInput, domain.NodeDecision, domain.NodeKnowledge, domain.NodeOutput:
		return t, nil
	}
	return "", errors.Wrapf(ErrInvalidNodeType, "%q", v)
}

func (g *Graph) AddNode(t domain.NodeType, label string, x, y float64) (domain.Node, error) {
	if _, err := ParseNodeType(string(t)); err != nil {
		return domain.Node{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	n := domain.Node{
		ID:         g.newID(),
		Type:       t,
		Label:      label,
		X:          x,
		Y:          y,
		Properties: domain.NodeProperties{Name: label},
	}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// NodeUpdate carries the fields to change; nil fields are left alone.
type NodeUpdate struct {
	Label       *string
	Name        *string
	Description *string
}

func (g *Graph) UpdateNode(id string, upd NodeUpdate) (domain.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(id)
	if i < 0 {
		return domain.Node{}, errors.Wrapf(ErrNodeNotFound, "%s", id)
	}
	n := &g.nodes[i]
	if upd.Label != nil {
		n.Label = *upd.Label
	}
	if upd.Name != nil {
		n.Properties.Name = *upd.Name
	}
	if upd.Description != nil {
		n.Properties.Description = *upd.Description
	}
	return *n, nil
}

// DeleteNode removes the node and every edge that starts or ends at it.
func (g *Graph) DeleteNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrNodeNotFound, "%s", id)
	}
	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	if g.target == id || (g.pending != nil && g.pending.From == id) {
		g.resetPointer()
	}
	return nil
}

// DeleteEdge removes every edge from -> to and reports how many went.
func (g *Graph) DeleteEdge(from, to string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.edges[:0]
	removed := 0
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	return removed
}

// BeginDrag starts moving node id from pointer position (x, y).
func (g *Graph) BeginDrag(id string, x, y float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexOf(id) < 0 {
		return errors.Wrapf(ErrNodeNotFound, "%s", id)
	}
	g.mode = modeDragging
	g.target = id
	g.pending = nil
	g.lastX, g.lastY = x, y
	return nil
}

// BeginConnect starts drawing an edge out of node from.
func (g *Graph) BeginConnect(from string, x, y float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexOf(from) < 0 {
		return errors.Wrapf(ErrNodeNotFound, "%s", from)
	}
	g.mode = modeConnecting
	g.target = ""
	g.pending = &Pending{From: from, X: x, Y: y}
	return nil
}

// PointerMove moves the dragged node by the cursor delta, or tracks the
// loose end of a pending connection.
func (g *Graph) PointerMove(x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.mode {
	case modeDragging:
		if i := g.indexOf(g.target); i >= 0 {
			g.nodes[i].X += x - g.lastX
			g.nodes[i].Y += y - g.lastY
		}
		g.lastX, g.lastY = x, y
	case modeConnecting:
		g.pending.X, g.pending.Y = x, y
	}
}

// PointerUp ends any drag. A pending connection becomes an edge only when
// (x, y) lies inside another node; otherwise it is dropped. The new edge,
// if any, is returned.
func (g *Graph) PointerUp(x, y float64) *domain.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var created *domain.Edge
	if g.mode == modeConnecting && g.pending != nil {
		if to := g.hit(x, y, g.pending.From); to != "" {
			e := domain.Edge{From: g.pending.From, To: to}
			g.edges = append(g.edges, e)
			created = &e
		}
	}
	g.resetPointer()
	return created
}

func (g *Graph) resetPointer() {
	g.mode = modeIdle
	g.target = ""
	g.pending = nil
}

// hit returns the topmost node other than skip containing (x, y).
func (g *Graph) hit(x, y float64, skip string) string {
	for i := len(g.nodes) - 1; i >= 0; i-- {
		n := g.nodes[i]
		if n.ID == skip {
			continue
		}
		if x >= n.X && x <= n.X+NodeWidth && y >= n.Y && y <= n.Y+NodeHeight {
			return n.ID
		}
	}
	return ""
}

func (g *Graph) indexOf(id string) int {
	for i, n := range g.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
