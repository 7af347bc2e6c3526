// Package export 提供示例的 JSONL 导出，格式为服务商微调 API 期望的
// {"messages":[...]} 逐行记录。
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ashwinyue/tunelab/internal/model"
)

// Message 对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record 一行训练记录
type Record struct {
	Messages []Message `json:"messages"`
}

// JSONL 把示例序列化为 JSONL。有改写时导出改写，否则导出原始输出；
// systemPrompt 非空时作为每条记录的首条消息。
func JSONL(examples []*model.Example, systemPrompt string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, ex := range examples {
		rec := buildRecord(ex, systemPrompt)
		// Encode 自带换行，一行一条记录
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode example %s: %w", ex.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// buildRecord 构造单条训练记录
func buildRecord(ex *model.Example, systemPrompt string) Record {
	output := ex.Output
	if ex.Rewrite != nil && *ex.Rewrite != "" {
		output = *ex.Rewrite
	}

	messages := make([]Message, 0, 3)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages,
		Message{Role: "user", Content: ex.Input},
		Message{Role: "assistant", Content: output},
	)
	return Record{Messages: messages}
}
