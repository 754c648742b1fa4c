package courseware

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

var (
	lifecycleTag  = "lifecycle"
	lifecycleText = "invalid lifecycle"

	parentTypeTag  = "parenttype"
	parentTypeText = "invalid parent element type"
)

// InitValidators registers courseware validators on the shared validator.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(lifecycleTag, lifecycleValidation)
	core.RegisterCustomTranslation(validate, translator, lifecycleTag, lifecycleText)

	_ = validate.RegisterValidation(parentTypeTag, parentTypeValidation)
	core.RegisterCustomTranslation(validate, translator, parentTypeTag, parentTypeText)
}

func lifecycleValidation(fl validator.FieldLevel) bool {
	v := Lifecycle(fl.Field().String())
	for _, lc := range AllLifecycles {
		if v == lc {
			return true
		}
	}
	return false
}

func parentTypeValidation(fl validator.FieldLevel) bool {
	switch ElementType(fl.Field().String()) {
	case ElementActivity, ElementInteractive, ElementPathway, ElementComponent:
		return true
	}
	return false
}

func (ns NewScenario) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.Condition != nil {
		if err := validateCondition(*ns.Condition); err != nil {
			return err
		}
	}
	return nil
}

func (us UpdateScenario) Validate(validate *validator.Validate) error {
	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.Condition != nil {
		if err := validateCondition(*us.Condition); err != nil {
			return err
		}
	}
	return nil
}

// validateCondition checks the structural sanity of an authored condition
// tree: chained nodes need a logical operator, leaves need a comparator and
// an LHS resolver.
func validateCondition(cond Condition) error {
	switch cond.Type {
	case ConditionChained:
		if cond.Operator != OperatorAnd && cond.Operator != OperatorOr {
			return core.NewValidationError(nil, core.FieldError{Field: "condition", Error: "chained condition requires an AND or OR operator"})
		}
		for _, child := range cond.Conditions {
			if err := validateCondition(child); err != nil {
				return err
			}
		}
	case ConditionEvaluator:
		if cond.Comparator == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "condition", Error: "evaluator condition requires a comparator"})
		}
		if cond.LHS == nil {
			return core.NewValidationError(nil, core.FieldError{Field: "condition", Error: "evaluator condition requires an lhs resolver"})
		}
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "condition", Error: "unknown condition type"})
	}
	return nil
}
