package cashctrl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// File is a remote file record, annotated with its hierarchical position in
// the category tree in Unix-like file path format.
type File struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"-"`
	Description   string    `json:"description"`
	Notes         string    `json:"notes"`
	Size          int64     `json:"size"`
	MimeType      string    `json:"mimeType"`
	IsAttached    bool      `json:"isAttached"`
	AttachedCount int       `json:"attachedCount"`
	CategoryID    *int      `json:"categoryId"`
	CategoryName  string    `json:"categoryName"`
	Created       Timestamp `json:"created"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdated   Timestamp `json:"lastUpdated"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
	DateArchived  Timestamp `json:"dateArchived"`
}

// UploadOptions control how a local file maps onto the remote store.
type UploadOptions struct {
	// ReplaceID replaces the remote file with this id instead of creating a
	// new one. Zero creates.
	ReplaceID int

	// Name is the filename on the remote server; defaults to the local base
	// name.
	Name string

	// CategoryID is the id of the category the file is stored in. Nil means
	// the root category.
	CategoryID *int

	// MimeType overrides MIME detection.
	MimeType string
}

// ListFiles lists remote files with their attributes, adding each file's
// path in the category tree. Files in the root category get "/<name>".
// Sorted by path.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	var response struct {
		Data []File `json:"data"`
	}
	if err := c.Get(ctx, "file/list.json", nil, &response); err != nil {
		return nil, err
	}
	files := response.Data
	if len(files) == 0 {
		return files, nil
	}

	categories, err := c.ListCategories(ctx, "file", false)
	if err != nil {
		return nil, err
	}
	pathByID := make(map[int]string, len(categories))
	for _, category := range categories {
		pathByID[category.ID] = category.Path
	}
	for i := range files {
		prefix := ""
		if files[i].CategoryID != nil {
			prefix = pathByID[*files[i].CategoryID]
		}
		files[i].Path = prefix + "/" + files[i].Name
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// detectMimeType resolves the MIME type of a file: extension lookup first,
// then content sniffing, then text/plain.
func detectMimeType(name string, content []byte) string {
	if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
		return byExt
	}
	if len(content) > 0 {
		return mimetype.Detect(content).String()
	}
	return "text/plain"
}

// UploadFile uploads a local file to the server, marks it for persistent
// storage and, if opts.ReplaceID is set, replaces the existing remote file.
// Returns the id of the created or replaced file.
//
// The upload runs in three steps: file/prepare.json reserves a file id and
// a write URL, the content is PUT to the write URL, and the file is then
// persisted (or attached to the replaced record).
func (c *Client) UploadFile(ctx context.Context, fsys afero.Fs, localPath string, opts UploadOptions) (int, error) {
	info, err := fsys.Stat(localPath)
	if err != nil || info.IsDir() {
		return 0, fmt.Errorf("file not found: %q", localPath)
	}
	content, err := afero.ReadFile(fsys, localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read %q: %w", localPath, err)
	}

	name := opts.Name
	if name == "" {
		name = path.Base(strings.ReplaceAll(localPath, "\\", "/"))
	}
	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(name, content)
	}

	entry := map[string]interface{}{
		"mimeType":   mimeType,
		"name":       name,
		"categoryId": opts.CategoryID,
	}
	var prepared struct {
		Data []struct {
			FileID   int    `json:"fileId"`
			WriteURL string `json:"writeUrl"`
		} `json:"data"`
	}
	err = c.Post(ctx, "file/prepare.json",
		Params{"files": []interface{}{entry}}, &prepared)
	if err != nil {
		return 0, err
	}
	if len(prepared.Data) != 1 {
		return 0, fmt.Errorf("expected one prepared file, got %d", len(prepared.Data))
	}
	fileID := prepared.Data[0].FileID
	writeURL := prepared.Data[0].WriteURL

	if err := c.putContent(ctx, writeURL, content); err != nil {
		return 0, err
	}

	if opts.ReplaceID == 0 {
		err := c.Post(ctx, "file/persist.json", Params{"ids": fileID}, nil)
		if err != nil {
			return 0, err
		}
		return fileID, nil
	}

	params := Params{
		"id":          opts.ReplaceID,
		"name":        name,
		"replaceWith": fileID,
		"categoryId":  opts.CategoryID,
	}
	if err := c.Post(ctx, "file/update.json", params, nil); err != nil {
		return 0, err
	}
	return opts.ReplaceID, nil
}

// putContent uploads raw bytes to a prepared write URL.
func (c *Client) putContent(ctx context.Context, writeURL string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, writeURL, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file upload failed with status %d", resp.StatusCode)
	}
	return nil
}

// DownloadFile downloads the file with the given remote id and writes its
// content to w.
func (c *Client) DownloadFile(ctx context.Context, id int, w io.Writer) error {
	body, err := c.Request(ctx, http.MethodGet, "file/get", nil, Params{"id": id})
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write downloaded content: %w", err)
	}
	return nil
}

// DeleteFiles deletes the remote files with the given ids. With force set,
// files still referenced elsewhere are deleted as well.
func (c *Client) DeleteFiles(ctx context.Context, ids []int, force bool) error {
	if len(ids) == 0 {
		return nil
	}
	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = strconv.Itoa(id)
	}
	return c.Post(ctx, "file/delete.json",
		Params{"ids": strings.Join(joined, ","), "force": force}, nil)
}

// EmptyArchive empties the remote recycle bin, releasing references held by
// archived files so their categories become deletable.
func (c *Client) EmptyArchive(ctx context.Context) error {
	return c.Post(ctx, "file/empty_archive.json", nil, nil)
}
