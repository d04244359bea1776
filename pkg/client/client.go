package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aulalabs/aula/rag/types"
	"github.com/aulalabs/aula/store"
)

// Client is a client for the Aula API
type Client struct {
	BaseURL string
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
	}
}

// ChatReply mirrors the /api/chat response.
type ChatReply struct {
	Answer    string                     `json:"answer"`
	StudentID string                     `json:"student_id"`
	Persona   string                     `json:"persona"`
	Sources   []map[string]string        `json:"sources,omitempty"`
	Decision  types.AugmentationDecision `json:"decision"`
}

// Chat sends a student message to a tutor persona.
func (c *Client) Chat(studentID, message, tutorType string) (*ChatReply, error) {
	url := fmt.Sprintf("%s/api/chat", c.BaseURL)

	payload, err := json.Marshal(map[string]string{
		"student_id": studentID,
		"message":    message,
		"tutor_type": tutorType,
	})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to chat with tutor")
	}

	reply := new(ChatReply)
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// ContextResult mirrors the /api/context response.
type ContextResult struct {
	Documents []types.Document           `json:"documents"`
	Decision  types.AugmentationDecision `json:"decision"`
}

// GetContext asks the augmentation pipeline for grounding documents.
func (c *Client) GetContext(query string) (*ContextResult, error) {
	url := fmt.Sprintf("%s/api/context", c.BaseURL)

	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to get context")
	}

	result := new(ContextResult)
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordProgress records a student's completion of a topic.
func (c *Client) RecordProgress(p store.Progress) (*store.Progress, error) {
	url := fmt.Sprintf("%s/api/progress", c.BaseURL)

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, errors.New("failed to record progress")
	}

	recorded := new(store.Progress)
	if err := json.NewDecoder(resp.Body).Decode(recorded); err != nil {
		return nil, err
	}
	return recorded, nil
}

// StudentProgress fetches all recorded progress for a student.
func (c *Client) StudentProgress(studentID string) ([]store.Progress, error) {
	url := fmt.Sprintf("%s/api/students/%s/progress", c.BaseURL, studentID)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch progress")
	}

	var progress []store.Progress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// UploadLessonFile uploads a lesson file into the library.
func (c *Client) UploadLessonFile(filePath string) error {
	url := fmt.Sprintf("%s/api/library/upload", c.BaseURL)

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := http.Post(url, writer.FormDataContentType(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("failed to upload lesson file")
	}
	return nil
}

// ListLibrary lists the seeded lesson files.
func (c *Client) ListLibrary() ([]string, error) {
	url := fmt.Sprintf("%s/api/library", c.BaseURL)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to list library")
	}

	var entries []string
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddSource registers a curriculum source for periodic refresh.
func (c *Client) AddSource(url string) error {
	endpoint := fmt.Sprintf("%s/api/sources", c.BaseURL)

	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return err
	}

	resp, err := http.Post(endpoint, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return errors.New("failed to add source")
	}
	return nil
}
