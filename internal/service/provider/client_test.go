package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashwinyue/tunelab/internal/config"
	"github.com/ashwinyue/tunelab/internal/testutil"
)

// newMockProvider 启动模拟服务商并返回指向它的客户端
func newMockProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.ProviderConfig{APIKey: "test-key"}
	return NewWithHTTPClient(cfg, testutil.NewTestClient(ts))
}

func TestUploadTrainingFile(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/files") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "file-abc",
			"object":  "file",
			"purpose": "fine-tune",
		})
	})

	fileID, err := client.UploadTrainingFile(context.Background(), "train.jsonl", []byte(`{"messages":[]}`+"\n"))
	if err != nil {
		t.Fatalf("UploadTrainingFile() error = %v", err)
	}
	if fileID != "file-abc" {
		t.Errorf("fileID = %s, want file-abc", fileID)
	}
}

func TestCreateJob(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["training_file"] != "file-abc" || req["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected request body: %v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ftjob-1",
			"object": "fine_tuning.job",
			"status": "queued",
		})
	})

	jobID, err := client.CreateJob(context.Background(), "file-abc", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if jobID != "ftjob-1" {
		t.Errorf("jobID = %s, want ftjob-1", jobID)
	}
}

func TestGetStatus(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":               "ftjob-1",
			"object":           "fine_tuning.job",
			"status":           "succeeded",
			"fine_tuned_model": "ft:gpt-4o-mini:proj",
		})
	})

	status, err := client.GetStatus(context.Background(), "ftjob-1")
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Status != "succeeded" {
		t.Errorf("Status = %s, want succeeded", status.Status)
	}
	if status.FineTunedModel != "ft:gpt-4o-mini:proj" {
		t.Errorf("FineTunedModel = %s", status.FineTunedModel)
	}
}

func TestCancel(t *testing.T) {
	var cancelled bool
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/cancel") {
			cancelled = true
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ftjob-1",
			"object": "fine_tuning.job",
			"status": "cancelled",
		})
	})

	if err := client.Cancel(context.Background(), "ftjob-1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !cancelled {
		t.Error("cancel endpoint was not hit")
	}
}

func TestChat(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)

		messages := req["messages"].([]any)
		first := messages[0].(map[string]any)
		if first["role"] != "system" {
			t.Errorf("first message role = %v, want system", first["role"])
		}
		if req["model"] != "ft:gpt-4o-mini:proj" {
			t.Errorf("model = %v", req["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "你好，有什么可以帮您？"},
					"finish_reason": "stop",
				},
			},
		})
	})

	out, err := client.Chat(context.Background(), "ft:gpt-4o-mini:proj", "你是客服助手", "你好")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if out != "你好，有什么可以帮您？" {
		t.Errorf("Chat() = %s", out)
	}
}

func TestChat_NoSystemPrompt(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		messages := req["messages"].([]any)
		if len(messages) != 1 {
			t.Errorf("messages = %d, want 1 (no system message)", len(messages))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	})

	out, err := client.Chat(context.Background(), "gpt-4o-mini", "", "hello")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if out != "ok" {
		t.Errorf("Chat() = %s, want ok", out)
	}
}

func TestChat_UpstreamError(t *testing.T) {
	client := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	})

	_, err := client.Chat(context.Background(), "gpt-4o-mini", "", "hello")
	if err == nil {
		t.Fatal("Chat() should surface upstream errors")
	}
}
