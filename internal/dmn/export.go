package dmn

import (
	"encoding/xml"
	"strconv"

	"github.com/cockroachdb/errors"

	"infinity/internal/domain"
)

const (
	nsDMN   = "https://www.omg.org/spec/DMN/20191111/MODEL/"
	nsDMNDI = "https://www.omg.org/spec/DMN/20191111/DMNDI/"
	nsDC    = "http://www.omg.org/spec/DMN/20180521/DC/"
)

type tDefinitions struct {
	XMLName          xml.Name           `xml:"definitions"`
	Xmlns            string             `xml:"xmlns,attr"`
	XmlnsDMNDI       string             `xml:"xmlns:dmndi,attr"`
	XmlnsDC          string             `xml:"xmlns:dc,attr"`
	ID               string             `xml:"id,attr"`
	Name             string             `xml:"name,attr"`
	Namespace        string             `xml:"namespace,attr"`
	Exporter         string             `xml:"exporter,attr"`
	Decisions        []tDecision        `xml:"decision"`
	InputData        []tElement         `xml:"inputData"`
	KnowledgeSources []tKnowledgeSource `xml:"knowledgeSource"`
	DMNDI            tDMNDI             `xml:"dmndi:DMNDI"`
}

type tElement struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"name,attr"`
	Description string `xml:"description,omitempty"`
}

type tDecision struct {
	tElement
	InformationRequirements []tInformationRequirement `xml:"informationRequirement"`
	KnowledgeRequirements   []tKnowledgeRequirement   `xml:"knowledgeRequirement"`
}

type tKnowledgeSource struct {
	tElement
	AuthorityRequirements []tAuthorityRequirement `xml:"authorityRequirement"`
}

type tHref struct {
	Href string `xml:"href,attr"`
}

type tInformationRequirement struct {
	ID               string `xml:"id,attr"`
	RequiredDecision *tHref `xml:"requiredDecision,omitempty"`
	RequiredInput    *tHref `xml:"requiredInput,omitempty"`
}

type tKnowledgeRequirement struct {
	ID                string `xml:"id,attr"`
	RequiredKnowledge tHref  `xml:"requiredKnowledge"`
}

type tAuthorityRequirement struct {
	ID               string `xml:"id,attr"`
	RequiredDecision *tHref `xml:"requiredDecision,omitempty"`
	RequiredInput    *tHref `xml:"requiredInput,omitempty"`
}

type tDMNDI struct {
	Diagram tDiagram `xml:"dmndi:DMNDiagram"`
}

type tDiagram struct {
	ID     string   `xml:"id,attr"`
	Shapes []tShape `xml:"dmndi:DMNShape"`
}

type tShape struct {
	ID            string  `xml:"id,attr"`
	DMNElementRef string  `xml:"dmnElementRef,attr"`
	Bounds        tBounds `xml:"dc:Bounds"`
}

type tBounds struct {
	Height float64 `xml:"height,attr"`
	Width  float64 `xml:"width,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
}

// ExportXML renders the graph as a DMN definitions document. Decision and
// output nodes become decisions, input nodes become input data and
// knowledge nodes become knowledge sources. Edges that DMN cannot express,
// such as edges into input data, are left out.
func (g *Graph) ExportXML(name string) ([]byte, error) {
	v := g.View()
	byID := make(map[string]domain.Node, len(v.Nodes))
	for _, n := range v.Nodes {
		byID[n.ID] = n
	}
	defs := tDefinitions{
		Xmlns:      nsDMN,
		XmlnsDMNDI: nsDMNDI,
		XmlnsDC:    nsDC,
		ID:         "definitions",
		Name:       name,
		Namespace:  "http://infinity/dmn",
		Exporter:   "infinity",
		DMNDI:      tDMNDI{Diagram: tDiagram{ID: "diagram"}},
	}
	decisions := map[string]int{}
	sources := map[string]int{}
	for _, n := range v.Nodes {
		el := tElement{ID: elementID(n.ID), Name: displayName(n), Description: n.Properties.Description}
		switch n.Type {
		case domain.NodeInput:
			defs.InputData = append(defs.InputData, el)
		case domain.NodeKnowledge:
			sources[n.ID] = len(defs.KnowledgeSources)
			defs.KnowledgeSources = append(defs.KnowledgeSources, tKnowledgeSource{tElement: el})
		default:
			decisions[n.ID] = len(defs.Decisions)
			defs.Decisions = append(defs.Decisions, tDecision{tElement: el})
		}
		defs.DMNDI.Diagram.Shapes = append(defs.DMNDI.Diagram.Shapes, tShape{
			ID:            "shape" + el.ID,
			DMNElementRef: el.ID,
			Bounds:        tBounds{Height: NodeHeight, Width: NodeWidth, X: n.X, Y: n.Y},
		})
	}
	for i, e := range v.Edges {
		from, ok := byID[e.From]
		if !ok {
			continue
		}
		if _, ok := byID[e.To]; !ok {
			continue
		}
		reqID := "req" + strconv.Itoa(i)
		href := &tHref{Href: "#" + elementID(from.ID)}
		if di, ok := decisions[e.To]; ok {
			d := &defs.Decisions[di]
			switch from.Type {
			case domain.NodeInput:
				d.InformationRequirements = append(d.InformationRequirements, tInformationRequirement{ID: reqID, RequiredInput: href})
			case domain.NodeKnowledge:
				d.KnowledgeRequirements = append(d.KnowledgeRequirements, tKnowledgeRequirement{ID: reqID, RequiredKnowledge: *href})
			default:
				d.InformationRequirements = append(d.InformationRequirements, tInformationRequirement{ID: reqID, RequiredDecision: href})
			}
			continue
		}
		if si, ok := sources[e.To]; ok {
			s := &defs.KnowledgeSources[si]
			switch from.Type {
			case domain.NodeInput:
				s.AuthorityRequirements = append(s.AuthorityRequirements, tAuthorityRequirement{ID: reqID, RequiredInput: href})
			case domain.NodeDecision, domain.NodeOutput:
				s.AuthorityRequirements = append(s.AuthorityRequirements, tAuthorityRequirement{ID: reqID, RequiredDecision: href})
			}
		}
	}
	out, err := xml.MarshalIndent(defs, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal dmn")
	}
	return append([]byte(xml.Header), out...), nil
}

func elementID(id string) string {
	return "_" + id
}

func displayName(n domain.Node) string {
	if n.Properties.Name != "" {
		return n.Properties.Name
	}
	return n.Label
}
