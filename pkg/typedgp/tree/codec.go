package tree

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// document is the serialized form of a tree. Types are listed so that every
// type only refers to types before it, operators refer to types by index, and
// nodes is the post-order sequence of operator indices.
type document struct {
	Types     []typeRecord     `json:"types"`
	Operators []operatorRecord `json:"operators"`
	Nodes     []int            `json:"nodes"`
}

type typeRecord struct {
	Name       string            `json:"name"`
	Meta       string            `json:"meta,omitempty"`
	Subtypes   []int             `json:"subtypes,omitempty"`
	Base       *int              `json:"base,omitempty"`
	Parameters []parameterRecord `json:"parameters,omitempty"`
}

type parameterRecord struct {
	Type     int    `json:"type"`
	Variance string `json:"variance"`
}

type operatorRecord struct {
	Name      string `json:"name"`
	Dtype     int    `json:"dtype"`
	Signature []int  `json:"signature,omitempty"`
}

type encoder struct {
	doc   document
	types map[string]int
	ops   map[string]int
}

func (e *encoder) addType(t types.Type) int {
	if i, ok := e.types[t.Key()]; ok {
		return i
	}
	var rec typeRecord
	switch v := t.(type) {
	case *types.Named:
		rec = typeRecord{Name: v.Name(), Meta: v.Meta()}
		for _, s := range v.Subtypes() {
			rec.Subtypes = append(rec.Subtypes, e.addType(s))
		}
	case *types.Parametrized:
		base := e.addType(v.Base())
		rec = typeRecord{Name: v.Name(), Meta: v.Meta(), Base: &base}
		for _, p := range v.Parameters() {
			rec.Parameters = append(rec.Parameters, parameterRecord{
				Type:     e.addType(p.Dtype),
				Variance: p.Variance.String(),
			})
		}
	}
	i := len(e.doc.Types)
	e.doc.Types = append(e.doc.Types, rec)
	e.types[t.Key()] = i
	return i
}

func (e *encoder) addOperator(o *lang.Operator) int {
	if i, ok := e.ops[o.Key()]; ok {
		return i
	}
	rec := operatorRecord{Name: o.Symbol().Name(), Dtype: e.addType(o.Dtype())}
	for _, s := range o.Signature() {
		rec.Signature = append(rec.Signature, e.addType(s))
	}
	i := len(e.doc.Operators)
	e.doc.Operators = append(e.doc.Operators, rec)
	e.ops[o.Key()] = i
	return i
}

// Marshal serializes t, its operators and their types to YAML.
func Marshal(t *Tree) ([]byte, error) {
	e := &encoder{types: map[string]int{}, ops: map[string]int{}}
	for n := range t.PostOrder() {
		e.doc.Nodes = append(e.doc.Nodes, e.addOperator(n.Operator()))
	}
	return yaml.Marshal(&e.doc)
}

// Unmarshal rebuilds a tree serialized by Marshal. The node graph is rebuilt
// with AddChild, so a document describing an ill-typed tree is rejected.
func Unmarshal(data []byte) (*Tree, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding tree: %v: %w", err, errdefs.ErrInvalidArgument)
	}

	decoded := make([]types.Type, len(doc.Types))
	ref := func(i, limit int) (types.Type, error) {
		if i < 0 || i >= limit {
			return nil, fmt.Errorf("type reference %d out of range: %w", i, errdefs.ErrInvalidArgument)
		}
		return decoded[i], nil
	}
	for i, rec := range doc.Types {
		if rec.Base == nil {
			subtypes := make([]types.Type, 0, len(rec.Subtypes))
			for _, s := range rec.Subtypes {
				st, err := ref(s, i)
				if err != nil {
					return nil, err
				}
				subtypes = append(subtypes, st)
			}
			t, err := types.NewGeneric(rec.Name, subtypes, types.WithMeta(rec.Meta))
			if err != nil {
				return nil, err
			}
			decoded[i] = t
			continue
		}

		base, err := ref(*rec.Base, i)
		if err != nil {
			return nil, err
		}
		params := make([]types.Parameter, 0, len(rec.Parameters))
		for _, p := range rec.Parameters {
			pt, err := ref(p.Type, i)
			if err != nil {
				return nil, err
			}
			variance, err := types.ParseVariance(p.Variance)
			if err != nil {
				return nil, err
			}
			params = append(params, types.Parameter{Dtype: pt, Variance: variance})
		}
		t, err := types.NewParametrized(rec.Name, base, params, types.WithMeta(rec.Meta))
		if err != nil {
			return nil, err
		}
		decoded[i] = t
	}

	ops := make([]*lang.Operator, len(doc.Operators))
	for i, rec := range doc.Operators {
		dtype, err := ref(rec.Dtype, len(decoded))
		if err != nil {
			return nil, err
		}
		signature := make([]types.Type, 0, len(rec.Signature))
		for _, s := range rec.Signature {
			st, err := ref(s, len(decoded))
			if err != nil {
				return nil, err
			}
			signature = append(signature, st)
		}
		symbol, err := lang.NewSymbol(rec.Name, dtype)
		if err != nil {
			return nil, err
		}
		if ops[i], err = lang.NewOperator(symbol, signature...); err != nil {
			return nil, err
		}
	}

	var stack []*Node
	for _, idx := range doc.Nodes {
		if idx < 0 || idx >= len(ops) {
			return nil, fmt.Errorf("operator reference %d out of range: %w", idx, errdefs.ErrInvalidArgument)
		}
		n := MustNode(ops[idx])
		arity := ops[idx].Arity()
		if len(stack) < arity {
			return nil, fmt.Errorf("%s needs %d arguments, only %d available: %w", ops[idx], arity, len(stack), errdefs.ErrInvalidArgument)
		}
		args := stack[len(stack)-arity:]
		stack = stack[:len(stack)-arity]
		for pos, child := range args {
			if err := n.AddChild(child, pos); err != nil {
				return nil, err
			}
		}
		stack = append(stack, n)
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("node sequence describes %d trees: %w", len(stack), errdefs.ErrInvalidArgument)
	}
	return New(stack[0])
}
