package dmn_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/dmn"
	"infinity/internal/domain"
)

func addNode(t *testing.T, g *dmn.Graph, typ domain.NodeType, label string, x, y float64) domain.Node {
	t.Helper()
	n, err := g.AddNode(typ, label, x, y)
	require.NoError(t, err)
	return n
}

func connect(t *testing.T, g *dmn.Graph, from, to domain.Node) {
	t.Helper()
	require.NoError(t, g.BeginConnect(from.ID, from.X, from.Y))
	e := g.PointerUp(to.X+10, to.Y+10)
	require.NotNil(t, e)
}

func TestDragMovesByDelta(t *testing.T) {
	g := dmn.NewGraph()
	n := addNode(t, g, domain.NodeDecision, "Approve", 100, 100)
	require.NoError(t, g.BeginDrag(n.ID, 110, 120))
	g.PointerMove(130, 125)
	g.PointerMove(140, 110)
	assert.Equal(t, n.ID, g.View().Dragging)
	assert.Nil(t, g.PointerUp(140, 110))

	got := g.View().Nodes[0]
	assert.Equal(t, 130.0, got.X)
	assert.Equal(t, 90.0, got.Y)
	assert.Empty(t, g.View().Dragging)

	g.PointerMove(500, 500)
	assert.Equal(t, 130.0, g.View().Nodes[0].X)
}

func TestConnectionNeedsDropOnAnotherNode(t *testing.T) {
	g := dmn.NewGraph()
	a := addNode(t, g, domain.NodeInput, "Age", 0, 0)
	b := addNode(t, g, domain.NodeDecision, "Eligible", 300, 0)

	require.NoError(t, g.BeginConnect(a.ID, 10, 10))
	g.PointerMove(200, 200)
	require.NotNil(t, g.View().Pending)
	assert.Nil(t, g.PointerUp(200, 200), "empty canvas drops the connection")
	assert.Empty(t, g.View().Edges)
	assert.Nil(t, g.View().Pending)

	require.NoError(t, g.BeginConnect(a.ID, 10, 10))
	assert.Nil(t, g.PointerUp(20, 20), "dropping on the source is discarded")

	require.NoError(t, g.BeginConnect(a.ID, 10, 10))
	e := g.PointerUp(300+dmn.NodeWidth, dmn.NodeHeight)
	require.NotNil(t, e)
	assert.Equal(t, domain.Edge{From: a.ID, To: b.ID}, *e)

	// duplicates are allowed
	connect(t, g, a, b)
	assert.Len(t, g.View().Edges, 2)
}

func TestDeleteNodeCascadesOnlyIncidentEdges(t *testing.T) {
	g := dmn.NewGraph()
	a := addNode(t, g, domain.NodeInput, "A", 0, 0)
	b := addNode(t, g, domain.NodeDecision, "B", 200, 0)
	c := addNode(t, g, domain.NodeOutput, "C", 400, 0)
	d := addNode(t, g, domain.NodeKnowledge, "D", 600, 0)
	connect(t, g, a, b)
	connect(t, g, b, c)
	connect(t, g, d, c)
	connect(t, g, c, b)

	require.NoError(t, g.DeleteNode(b.ID))
	v := g.View()
	assert.Len(t, v.Nodes, 3)
	assert.Equal(t, []domain.Edge{{From: d.ID, To: c.ID}}, v.Edges)

	assert.ErrorIs(t, g.DeleteNode(b.ID), dmn.ErrNodeNotFound)
}

func TestUpdateNodeAndInvalidType(t *testing.T) {
	g := dmn.NewGraph()
	n := addNode(t, g, domain.NodeDecision, "Risk", 0, 0)
	assert.Equal(t, "Risk", n.Properties.Name)
	desc := "scores claims"
	updated, err := g.UpdateNode(n.ID, dmn.NodeUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "scores claims", updated.Properties.Description)
	assert.Equal(t, "Risk", updated.Label)

	_, err = g.AddNode(domain.NodeType("gateway"), "x", 0, 0)
	assert.ErrorIs(t, err, dmn.ErrInvalidNodeType)
}

func TestExportXML(t *testing.T) {
	g := dmn.NewGraph()
	in := addNode(t, g, domain.NodeInput, "Claim Amount", 0, 0)
	dec := addNode(t, g, domain.NodeDecision, "Approval", 200, 0)
	ks := addNode(t, g, domain.NodeKnowledge, "Policy", 200, 200)
	connect(t, g, in, dec)
	connect(t, g, ks, dec)

	out, err := g.ExportXML("Claims")
	require.NoError(t, err)
	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<inputData id="_`+in.ID+`" name="Claim Amount">`)
	assert.Contains(t, doc, `<requiredInput href="#_`+in.ID+`">`)
	assert.Contains(t, doc, `<requiredKnowledge href="#_`+ks.ID+`">`)
	assert.Contains(t, doc, `<dmndi:DMNShape id="shape_`+dec.ID+`"`)
}
