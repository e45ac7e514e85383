package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/painscope/internal/model"
)

// File reads items from a JSON document: either an array of items or an
// object with an "items" array. Path "-" reads from Stdin.
type File struct {
	Path  string
	Stdin io.Reader
}

// NewFile creates a file source
func NewFile(path string) *File {
	return &File{Path: path, Stdin: os.Stdin}
}

// Name returns "file"
func (f *File) Name() string {
	return "file"
}

// Fetch decodes the file
func (f *File) Fetch(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	var err error
	if f.Path == "-" {
		data, err = io.ReadAll(f.Stdin)
	} else {
		data, err = os.ReadFile(f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	return DecodeItems(data)
}

// DecodeItems parses an items document
func DecodeItems(data []byte) ([]model.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.Item{}, nil
	}

	var items []model.Item
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	} else {
		var doc struct {
			Items []model.Item `json:"items"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		items = doc.Items
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("item_%d", i+1)
		}
		for j := range items[i].Replies {
			if items[i].Replies[j].ID == "" {
				items[i].Replies[j].ID = fmt.Sprintf("%s_reply_%d", items[i].ID, j+1)
			}
		}
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Text wraps free-form text as a single item
type Text struct {
	ID     string
	Reader io.Reader
}

// Name returns "text"
func (t *Text) Name() string {
	return "text"
}

// Fetch reads all text into one item with the text as its primary field
func (t *Text) Fetch(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(t.Reader)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	id := t.ID
	if id == "" {
		id = "text"
	}
	return []model.Item{{ID: id, Title: string(data)}}, nil
}
