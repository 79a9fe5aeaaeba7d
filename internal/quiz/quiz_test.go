package quiz

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTest() Test {
	return Test{
		Title: "Тест: Прямая, луч, отрезок. Ломаная",
		Topic: "Прямая, луч, отрезок. Ломаная",
		Questions: []Question{
			{
				Text: "Что такое луч?",
				Options: []string{
					"Отрезок с одним концом",
					"Бесконечная линия в обе стороны",
					"Часть прямой с началом в одной точке и бесконечная в одном направлении",
					"Два отрезка, соединённых в одной точке",
				},
				CorrectIndex: 2,
			},
			{Text: "Сколько точек определяют прямую?", Options: []string{"Одну", "Две", "Три", "Любое количество"}, CorrectIndex: 1},
			{Text: "Ломаная линия — это:", Options: []string{"Кривая линия", "Последовательность отрезков, соединённых концами", "Прямая с изломами", "Окружность"}, CorrectIndex: 1},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleTest().Validate())

	cases := map[string]func(*Test){
		"empty title":    func(t *Test) { t.Title = "  " },
		"no questions":   func(t *Test) { t.Questions = nil },
		"blank question": func(t *Test) { t.Questions[0].Text = "" },
		"one option":     func(t *Test) { t.Questions[1].Options = []string{"Две"} },
		"index too big":  func(t *Test) { t.Questions[2].CorrectIndex = 4 },
		"negative index": func(t *Test) { t.Questions[2].CorrectIndex = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tt := sampleTest()
			mutate(&tt)
			err := tt.Validate()
			assert.True(t, errors.Is(err, ErrInvalidTest), "got %v", err)
		})
	}
}

func TestGrade(t *testing.T) {
	tt := sampleTest()
	res := Grade(tt, Answers{0: 2, 1: 0})
	assert.Equal(t, Result{Correct: 1, Total: 3, Answered: 2}, res)
	assert.False(t, res.Complete())

	res = Grade(tt, Answers{0: 2, 1: 1, 2: 1})
	assert.Equal(t, 3, res.Correct)
	assert.True(t, res.Complete())
}

func TestTruncate(t *testing.T) {
	tt := sampleTest()
	assert.Len(t, tt.Truncate(2).Questions, 2)
	assert.Len(t, tt.Truncate(10).Questions, 3)
	assert.Len(t, tt.Questions, 3, "original is untouched")
}

func TestWireFormat(t *testing.T) {
	raw := `{"test_title":"Тест: Углы","questions":[{"question_text":"Сколько градусов в прямом угле?","options":["45","90"],"correct_index":1}]}`
	var tt Test
	require.NoError(t, json.Unmarshal([]byte(raw), &tt))
	assert.Equal(t, "Тест: Углы", tt.Title)
	assert.Equal(t, 1, tt.Questions[0].CorrectIndex)
	require.NoError(t, tt.Validate())
}
