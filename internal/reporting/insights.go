// Package reporting builds the model health and adoption insights: KPI
// cards, weekly series, contributor and investment breakdowns and the
// activity heatmap. Random series come from a seeded source so a given seed
// always yields the same report.
package reporting

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cockroachdb/errors"
)

const (
	Weeks          = 12
	HeatmapRows    = 12
	HeatmapCols    = 7
	HeatmapMax     = 5
	DefaultRange   = "90d"
	DefaultTeam    = "All teams"
	adopterDivisor = 6
)

var (
	Ranges = []string{"7d", "30d", "90d", "1y"}
	Teams  = []string{"All teams", "Platform", "ML", "Product"}

	ErrInvalidRange = errors.New("invalid time range")
	ErrInvalidTeam  = errors.New("invalid team")
)

type KPI struct {
	DeploymentsLast7d    int     `json:"deploymentsLast7d"`
	DeploymentsLast30d   int     `json:"deploymentsLast30d"`
	ChangeLeadTimeHours  int     `json:"changeLeadTimeHoursMedian"`
	PRCycleTimeHours     int     `json:"prCycleTimeHoursMedian"`
	ReviewTimeHours      int     `json:"reviewTimeHoursMedian"`
	TestsPassRatePercent float64 `json:"testsPassRatePct"`
	WIPOpenPRs           int     `json:"wipOpenPRs"`
}

// Card is a KPI rendered for display.
type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type WeekPoint struct {
	Week        string  `json:"week"`
	Merges      int     `json:"merges"`
	Deployments int     `json:"deployments"`
	TestsPassed int     `json:"testsPassed"`
	TestsFailed int     `json:"testsFailed"`
	LatencyMs   int     `json:"latencyMs"`
	ErrorRate   float64 `json:"errorRate"`
	Queries     int     `json:"queries"`
}

type Contributor struct {
	Name    string `json:"name"`
	Commits int    `json:"commits"`
}

type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type HeatCell struct {
	Value     int     `json:"value"`
	Intensity float64 `json:"intensity"`
}

type TeamStat struct {
	Team            string `json:"team"`
	LeadTimeHours   int    `json:"leadTimeHours"`
	ReviewTimeHours int    `json:"reviewTimeHours"`
}

type Throughput struct {
	Week   string `json:"week"`
	ModelA int    `json:"modelA"`
	ModelB int    `json:"modelB"`
	ModelC int    `json:"modelC"`
}

type WorkItem struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Age    string `json:"age"`
	Status string `json:"status"`
}

type Insights struct {
	Range           string        `json:"range"`
	Team            string        `json:"team"`
	KPI             KPI           `json:"kpi"`
	Cards           []Card        `json:"cards"`
	Series          []WeekPoint   `json:"series"`
	Contributors    []Contributor `json:"contributors"`
	Investment      []Slice       `json:"investment"`
	Heatmap         [][]HeatCell  `json:"heatmap"`
	TeamComparison  []TeamStat    `json:"teamComparison"`
	ModelThroughput []Throughput  `json:"modelThroughput"`
	Worklog         []WorkItem    `json:"worklog"`
	TotalAdopters   int           `json:"totalAdopters"`
	CIQueueSeconds  int           `json:"ciQueueSeconds"`
	FlakyTests      int           `json:"flakyTests"`
}

var kpi = KPI{
	DeploymentsLast7d:    3,
	DeploymentsLast30d:   12,
	ChangeLeadTimeHours:  52,
	PRCycleTimeHours:     36,
	ReviewTimeHours:      8,
	TestsPassRatePercent: 96.2,
	WIPOpenPRs:           18,
}

// Generate builds the insights for the given range and team. Empty values
// select the defaults.
func Generate(rangeSel, team string, seed uint64) (Insights, error) {
	if rangeSel == "" {
		rangeSel = DefaultRange
	}
	if team == "" {
		team = DefaultTeam
	}
	if !slices.Contains(Ranges, rangeSel) {
		return Insights{}, errors.Wrapf(ErrInvalidRange, "%q", rangeSel)
	}
	if !slices.Contains(Teams, team) {
		return Insights{}, errors.Wrapf(ErrInvalidTeam, "%q", team)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	series := WeeklySeries(rng)
	return Insights{
		Range:           rangeSel,
		Team:            team,
		KPI:             kpi,
		Cards:           cards(kpi),
		Series:          series,
		Contributors:    []Contributor{{"alice", 150}, {"bob", 120}, {"carol", 95}, {"dave", 80}, {"eve", 60}},
		Investment:      []Slice{{"Features", 55}, {"Bugs", 20}, {"Tech debt", 15}, {"Ops", 10}},
		Heatmap:         Heatmap(rng),
		TeamComparison:  []TeamStat{{"Platform", 48, 6}, {"ML", 36, 8}, {"Product", 60, 12}},
		ModelThroughput: throughput(),
		Worklog: []WorkItem{
			{"Fix claim validation edge case", "alice", "2h ago", "Open"},
			{"Add new claim processing rule", "bob", "6h ago", "Review"},
			{"Refactor adjudication service", "carol", "1d ago", "Merged"},
			{"Improve claim cycle metrics", "dave", "2d ago", "Open"},
		},
		TotalAdopters:  TotalAdopters(series),
		CIQueueSeconds: 45,
		FlakyTests:     4,
	}, nil
}

func cards(k KPI) []Card {
	return []Card{
		{"Deployments / 7d", fmt.Sprint(k.DeploymentsLast7d)},
		{"Change lead time (median)", fmt.Sprintf("%d hrs", k.ChangeLeadTimeHours)},
		{"PR cycle time", fmt.Sprintf("%d hrs", k.PRCycleTimeHours)},
		{"Review time", fmt.Sprintf("%d hrs", k.ReviewTimeHours)},
		{"Tests pass rate", fmt.Sprintf("%g%%", k.TestsPassRatePercent)},
		{"Open WIP PRs", fmt.Sprint(k.WIPOpenPRs)},
	}
}

// WeeklySeries returns W-11 through W-0.
func WeeklySeries(rng *rand.Rand) []WeekPoint {
	out := make([]WeekPoint, Weeks)
	for i := range out {
		fi := float64(i)
		out[i] = WeekPoint{
			Week:        fmt.Sprintf("W-%d", Weeks-1-i),
			Merges:      round(8 + fi*3 + (rng.Float64()*6 - 3)),
			Deployments: round(1 + fi/3 + rng.Float64()*2),
			TestsPassed: 40 + i*4 + round(rng.Float64()*6),
			TestsFailed: 3 + round(rng.Float64()*4),
			LatencyMs:   120 - i + round(rng.Float64()*10-5),
			ErrorRate:   math.Round((1+rng.Float64()*1.5)*100) / 100,
			Queries:     200 + i*120 + round(rng.Float64()*200),
		}
	}
	return out
}

// Heatmap values grow with the row index; intensity is min(1, v/HeatmapMax).
func Heatmap(rng *rand.Rand) [][]HeatCell {
	m := make([][]HeatCell, HeatmapRows)
	for r := range m {
		m[r] = make([]HeatCell, HeatmapCols)
		for c := range m[r] {
			v := max(0, round(rng.Float64()*6+float64(r)*0.5))
			m[r][c] = HeatCell{Value: v, Intensity: math.Min(1, float64(v)/HeatmapMax)}
		}
	}
	return m
}

func TotalAdopters(series []WeekPoint) int {
	total := 0
	for _, p := range series {
		total += round(float64(p.Merges) / adopterDivisor)
	}
	return total
}

func throughput() []Throughput {
	a := []int{120, 130, 140, 135, 150, 160, 155, 170, 175, 180, 185, 190}
	b := []int{80, 85, 90, 95, 100, 110, 115, 120, 125, 130, 135, 140}
	c := []int{60, 70, 75, 80, 85, 90, 95, 100, 105, 110, 115, 120}
	out := make([]Throughput, Weeks)
	for i := range out {
		out[i] = Throughput{Week: fmt.Sprintf("W-%d", Weeks-1-i), ModelA: a[i], ModelB: b[i], ModelC: c[i]}
	}
	return out
}

// round rounds halves up.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
