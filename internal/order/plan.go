// AngelaMos | 2026
// plan.go

package order

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/coursehub/internal/core"
)

type PlanType string

const (
	PlanSingle    PlanType = "single"
	PlanQuarterly PlanType = "quarterly"
	PlanKit       PlanType = "kit"
	PlanSchool    PlanType = "school"
	PlanCombo     PlanType = "combo"
)

// Plan is one of SinglePlan, QuarterlyPlan, KitPlan, SchoolPlan or
// ComboPlan. Each variant carries only the references its type needs.
type Plan interface {
	Type() PlanType
	isPlan()
}

type SinglePlan struct {
	CourseID string
}

type QuarterlyPlan struct{}

type KitPlan struct{}

type SchoolPlan struct{}

type ComboPlan struct {
	ComboID string
}

func (SinglePlan) Type() PlanType    { return PlanSingle }
func (QuarterlyPlan) Type() PlanType { return PlanQuarterly }
func (KitPlan) Type() PlanType       { return PlanKit }
func (SchoolPlan) Type() PlanType    { return PlanSchool }
func (ComboPlan) Type() PlanType     { return PlanCombo }

func (SinglePlan) isPlan()    {}
func (QuarterlyPlan) isPlan() {}
func (KitPlan) isPlan()       {}
func (SchoolPlan) isPlan()    {}
func (ComboPlan) isPlan()     {}

// ParsePlan turns loosely shaped input into a Plan. A single plan needs a
// course and nothing else, a combo plan needs a combo and nothing else, and
// the remaining plans accept neither.
func ParsePlan(planType, courseID, comboID string) (Plan, error) {
	courseID = strings.TrimSpace(courseID)
	comboID = strings.TrimSpace(comboID)

	switch PlanType(strings.ToLower(strings.TrimSpace(planType))) {
	case PlanSingle:
		if courseID == "" {
			return nil, planError("single plan requires course_id")
		}
		if comboID != "" {
			return nil, planError("single plan does not take combo_id")
		}
		return SinglePlan{CourseID: courseID}, nil

	case PlanCombo:
		if comboID == "" {
			return nil, planError("combo plan requires combo_id")
		}
		if courseID != "" {
			return nil, planError("combo plan does not take course_id")
		}
		return ComboPlan{ComboID: comboID}, nil

	case PlanQuarterly:
		if err := noRefs(planType, courseID, comboID); err != nil {
			return nil, err
		}
		return QuarterlyPlan{}, nil

	case PlanKit:
		if err := noRefs(planType, courseID, comboID); err != nil {
			return nil, err
		}
		return KitPlan{}, nil

	case PlanSchool:
		if err := noRefs(planType, courseID, comboID); err != nil {
			return nil, err
		}
		return SchoolPlan{}, nil
	}

	return nil, planError(fmt.Sprintf("unknown plan type %q", planType))
}

func noRefs(planType, courseID, comboID string) error {
	if courseID != "" || comboID != "" {
		return planError(planType + " plan takes neither course_id nor combo_id")
	}
	return nil
}

func planError(msg string) error {
	return fmt.Errorf("%s: %w", msg, core.ErrInvalidInput)
}
