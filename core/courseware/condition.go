package courseware

import "encoding/json"

// ConditionType discriminates the two node shapes of a condition tree.
type ConditionType string

const (
	ConditionChained   ConditionType = "CHAINED_CONDITION"
	ConditionEvaluator ConditionType = "EVALUATOR"
)

// LogicalOperator joins the children of a CHAINED_CONDITION.
type LogicalOperator string

const (
	OperatorAnd LogicalOperator = "AND"
	OperatorOr  LogicalOperator = "OR"
)

// Comparator is the authored comparison of a leaf predicate.
type Comparator string

const (
	ComparatorEquals    Comparator = "EQUALS"
	ComparatorNotEquals Comparator = "NOT_EQUALS"
	ComparatorGT        Comparator = "GREATER_THAN"
	ComparatorGE        Comparator = "GREATER_THAN_OR_EQUALS"
	ComparatorLT        Comparator = "LESS_THAN"
	ComparatorLE        Comparator = "LESS_THAN_OR_EQUALS"
	ComparatorContains  Comparator = "CONTAINS"
	ComparatorAnyOf     Comparator = "ANY_OF"
)

// DataType declares how a resolved operand value must be interpreted.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumber  DataType = "NUMBER"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeList    DataType = "LIST"
)

// Condition is one node of a boolean condition tree. A CHAINED_CONDITION
// combines Conditions with Operator; an EVALUATOR compares the value
// resolved from LHS against the RHS literal using Comparator.
type Condition struct {
	Type     ConditionType   `json:"type"`
	Operator LogicalOperator `json:"operator,omitempty"`
	// children of a chained condition, evaluated in authored order
	Conditions []Condition `json:"conditions,omitempty"`

	Comparator  Comparator      `json:"comparator,omitempty"`
	OperandType DataType        `json:"operandType,omitempty"`
	LHS         *Resolver       `json:"lhs,omitempty"`
	RHS         json.RawMessage `json:"rhs,omitempty"`
}

// AlwaysTrue is the default condition on scenarios authored with no
// conditions: an empty AND chain, which evaluates true.
func AlwaysTrue() Condition {
	return Condition{Type: ConditionChained, Operator: OperatorAnd}
}
