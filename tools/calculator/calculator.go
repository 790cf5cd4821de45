// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package calculator provides the arithmetic tool shared by every agent.
package calculator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/nlpodyssey/productintel/tools"
)

const ToolName = "calculator"

type Args struct {
	Expression string `json:"expression" jsonschema:"description=Arithmetic expression, e.g. (120 - 95) / 95 * 100"`
}

// env exposes a few math helpers to expressions.
var env = map[string]any{
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"pi":    math.Pi,
	"e":     math.E,
	"roundTo": func(x float64, digits int) float64 {
		p := math.Pow(10, float64(digits))
		return math.Round(x*p) / p
	},
	"percent": func(part, whole float64) float64 {
		if whole == 0 {
			return math.NaN()
		}
		return part / whole * 100
	},
}

// Evaluate computes a numeric expression. Results are formatted without
// trailing zeros.
func Evaluate(expression string) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return "", fmt.Errorf("invalid expression: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("evaluation failed: %w", err)
	}

	switch v := out.(type) {
	case int:
		return strconv.Itoa(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("result is not a finite number")
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("expression must evaluate to a number, got %T", out)
	}
}

// Tool returns the calculator as a function tool. Evaluation errors are
// reported to the model as text so it can rephrase the expression.
func Tool() tools.Function {
	return tools.NewFunctionTool(ToolName,
		"Evaluate an arithmetic expression. Supports + - * / % ^, parentheses, "+
			"sqrt, pow, log, log10, exp, roundTo(x, digits), percent(part, whole), pi and e.",
		func(_ context.Context, args Args) (string, error) {
			result, err := Evaluate(args.Expression)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			return result, nil
		})
}
