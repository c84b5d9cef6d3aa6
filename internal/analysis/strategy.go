package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"stockmind/internal/normalize"
)

// Placeholder fills every string field the model left out.
const Placeholder = "-"

// Defaults used when the model omits the field and by degraded payloads.
const (
	DefaultVerdict   = "관망"
	DefaultRiskLevel = "중간"
	DefaultRiskScore = 50
)

type BuyStrategy struct {
	Zone   string   `json:"zone"`
	Timing string   `json:"timing"`
	Split  []string `json:"split"`
}

type SellStrategy struct {
	ShortTarget string `json:"shortTarget"`
	MidTarget   string `json:"midTarget"`
	StopLoss    string `json:"stopLoss"`
	ExitSignal  string `json:"exitSignal"`
}

type Scenario struct {
	Price string `json:"price"`
	Desc  string `json:"desc"`
}

type Scenarios struct {
	Bull Scenario `json:"bull"`
	Base Scenario `json:"base"`
	Bear Scenario `json:"bear"`
}

// Strategy is the fixed analysis schema. Every field is always present.
type Strategy struct {
	Verdict       string       `json:"verdict"`
	VerdictReason string       `json:"verdictReason"`
	BuyStrategy   BuyStrategy  `json:"buyStrategy"`
	SellStrategy  SellStrategy `json:"sellStrategy"`
	Risks         []string     `json:"risks"`
	RiskLevel     string       `json:"riskLevel"`
	RiskScore     float64      `json:"riskScore"`
	Scenarios     Scenarios    `json:"scenarios"`
	WatchPoints   []string     `json:"watchPoints"`
	Summary       string       `json:"summary"`
}

// Degraded is the placeholder strategy returned whenever the model cannot be
// consulted or its answer cannot be read. msg explains why.
func Degraded(msg string) Strategy {
	empty := Scenario{Price: Placeholder, Desc: Placeholder}
	return Strategy{
		Verdict:       DefaultVerdict,
		VerdictReason: msg,
		BuyStrategy:   BuyStrategy{Zone: Placeholder, Timing: Placeholder, Split: []string{}},
		SellStrategy: SellStrategy{
			ShortTarget: Placeholder,
			MidTarget:   Placeholder,
			StopLoss:    Placeholder,
			ExitSignal:  Placeholder,
		},
		Risks:       []string{msg},
		RiskLevel:   DefaultRiskLevel,
		RiskScore:   DefaultRiskScore,
		Scenarios:   Scenarios{Bull: empty, Base: empty, Bear: empty},
		WatchPoints: []string{"환경변수 확인", "재배포 후 재시도"},
		Summary:     msg,
	}
}

var (
	fence       = regexp.MustCompile("(?i)```(?:json)?\\s*")
	firstObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseStrategy reads model output into a complete Strategy. Markdown code
// fences are stripped; when the remainder is not JSON, the outermost {...}
// block is tried. Missing strings become Placeholder.
func ParseStrategy(text string) (Strategy, error) {
	raw := strings.TrimSpace(fence.ReplaceAllString(text, ""))
	if raw == "" {
		return Strategy{}, ErrUnparsable
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		m := firstObject.FindString(raw)
		if m == "" {
			return Strategy{}, fmt.Errorf("%w: %w", ErrUnparsable, err)
		}
		if err := json.Unmarshal([]byte(m), &obj); err != nil {
			return Strategy{}, fmt.Errorf("%w: %w", ErrUnparsable, err)
		}
	}
	if obj == nil {
		return Strategy{}, ErrUnparsable
	}
	return fromMap(obj), nil
}

func fromMap(m map[string]any) Strategy {
	buy := object(m["buyStrategy"])
	sell := object(m["sellStrategy"])
	sc := object(m["scenarios"])

	score := float64(DefaultRiskScore)
	if v, ok := m["riskScore"]; ok && v != nil {
		score = min(max(normalize.ToNumber(v), 0), 100)
	}

	return Strategy{
		Verdict:       text(m["verdict"], DefaultVerdict),
		VerdictReason: text(m["verdictReason"], Placeholder),
		BuyStrategy: BuyStrategy{
			Zone:   text(buy["zone"], Placeholder),
			Timing: text(buy["timing"], Placeholder),
			Split:  list(buy["split"]),
		},
		SellStrategy: SellStrategy{
			ShortTarget: text(sell["shortTarget"], Placeholder),
			MidTarget:   text(sell["midTarget"], Placeholder),
			StopLoss:    text(sell["stopLoss"], Placeholder),
			ExitSignal:  text(sell["exitSignal"], Placeholder),
		},
		Risks:     list(m["risks"]),
		RiskLevel: text(m["riskLevel"], DefaultRiskLevel),
		RiskScore: score,
		Scenarios: Scenarios{
			Bull: scenario(sc["bull"]),
			Base: scenario(sc["base"]),
			Bear: scenario(sc["bear"]),
		},
		WatchPoints: list(m["watchPoints"]),
		Summary:     text(m["summary"], Placeholder),
	}
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func scenario(v any) Scenario {
	m := object(v)
	return Scenario{Price: text(m["price"], Placeholder), Desc: text(m["desc"], Placeholder)}
}

// text renders scalars as strings and nested values as compact JSON.
func text(v any, def string) string {
	switch s := v.(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return fmt.Sprint(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return def
		}
		return string(b)
	}
}

func list(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := text(item, ""); s != "" {
			out = append(out, s)
		}
	}
	return out
}
