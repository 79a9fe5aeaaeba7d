package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomentor/internal/chat"
)

func TestSendPostsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "learner-1", r.Header.Get(SessionHeader))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"message": "What is a ray?"}, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Луч — часть прямой."})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithSessionID("learner-1"))
	reply, err := c.Send(context.Background(), "What is a ray?")
	require.NoError(t, err)
	assert.Equal(t, "Луч — часть прямой.", reply)
}

func TestSendFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"503": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":"All API keys blocked"}`)
		},
		"500 plain": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "not json")
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := New(srv.URL).Send(context.Background(), "hi")
			assert.ErrorIs(t, err, ErrRequestFailed)
		})
	}
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestSessionFallbackOn503(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := chat.New(New(srv.URL), chat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := s.Submit(context.Background(), "Найдите периметр квадрата со стороной 5")
	require.NoError(t, err)

	got := s.Transcript()
	require.Len(t, got, 2)
	last := got[len(got)-1]
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Equal(t, "Произошла ошибка при отправке сообщения. Попробуйте позже.", last.Content)
}

func TestSessionScenarioRay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"A ray starts at a point and extends infinitely in one direction."}`)
	}))
	defer srv.Close()

	s := chat.New(New(srv.URL))
	_, err := s.Submit(context.Background(), "What is a ray?")
	require.NoError(t, err)

	got := s.Transcript()
	require.Len(t, got, 2)
	assert.Equal(t, chat.RoleUser, got[0].Role)
	assert.Equal(t, "What is a ray?", got[0].Content)
	assert.Equal(t, chat.RoleAssistant, got[1].Role)
	assert.Equal(t, "A ray starts at a point and extends infinitely in one direction.", got[1].Content)
}

func TestGenerateTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-test", r.URL.Path)
		var body struct {
			Topic        string `json:"topic"`
			NumQuestions int    `json:"num_questions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Углы", body.Topic)
		assert.Equal(t, 2, body.NumQuestions)
		_, _ = io.WriteString(w, `{"test_title":"Тест: Углы","questions":[
			{"question_text":"Прямой угол равен","options":["45°","90°","180°"],"correct_index":1},
			{"question_text":"Развёрнутый угол равен","options":["90°","180°"],"correct_index":1}]}`)
	}))
	defer srv.Close()

	tt, err := New(srv.URL).GenerateTest(context.Background(), "Углы", 2)
	require.NoError(t, err)
	assert.Equal(t, "Тест: Углы", tt.Title)
	assert.Equal(t, "Углы", tt.Topic)
	require.Len(t, tt.Questions, 2)
	assert.Equal(t, []string{"90°", "180°"}, tt.Questions[1].Options)
}

func TestGenerateTestErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"error body": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"Failed to generate test"}`)
		},
		"error in 200": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"error":"API key not found"}`)
		},
		"invalid test": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"test_title":"T","questions":[{"question_text":"Q","options":["a","b"],"correct_index":5}]}`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := New(srv.URL).GenerateTest(context.Background(), "Углы", 1)
			assert.ErrorIs(t, err, ErrRequestFailed)
		})
	}
}
