package catalog

import (
	"fmt"

	"github.com/georgmuntingh/sheet-music-tutor/models"
)

func init() {
	register(&Lesson{
		ID:    "math-addition-10",
		Title: "Addition up to 10",
		Order: 7,
		Items: additionProblems(10),
	})
	register(&Lesson{
		ID:    "math-subtraction-10",
		Title: "Subtraction up to 10",
		Order: 8,
		Items: subtractionProblems(10),
	})
	register(&Lesson{
		ID:    "math-multiplication-5",
		Title: "Multiplication tables 2-5",
		Order: 9,
		Items: multiplicationProblems(2, 5),
	})
}

func additionProblems(limit int) []models.CardPayload {
	var items []models.CardPayload
	for a := 1; a <= limit; a++ {
		for b := 1; a+b <= limit; b++ {
			items = append(items, models.MathProblem{
				Question: fmt.Sprintf("%d + %d", a, b),
				Answer:   fmt.Sprintf("%d", a+b),
			})
		}
	}
	return items
}

func subtractionProblems(limit int) []models.CardPayload {
	var items []models.CardPayload
	for a := 2; a <= limit; a++ {
		for b := 1; b < a; b++ {
			items = append(items, models.MathProblem{
				Question: fmt.Sprintf("%d - %d", a, b),
				Answer:   fmt.Sprintf("%d", a-b),
			})
		}
	}
	return items
}

func multiplicationProblems(fromTable, toTable int) []models.CardPayload {
	var items []models.CardPayload
	for a := fromTable; a <= toTable; a++ {
		for b := 1; b <= 10; b++ {
			items = append(items, models.MathProblem{
				Question: fmt.Sprintf("%d × %d", a, b),
				Answer:   fmt.Sprintf("%d", a*b),
			})
		}
	}
	return items
}
