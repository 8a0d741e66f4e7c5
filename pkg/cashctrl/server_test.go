package cashctrl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeCategory is a node in the fake server's category store.
type fakeCategory struct {
	id       int
	name     string
	parentID *int
	number   *int
	system   bool
}

// fakeFile is a record in the fake server's file store.
type fakeFile struct {
	id          int
	name        string
	mimeType    string
	categoryID  *int
	lastUpdated string
	content     []byte
}

// fakeServer emulates the subset of the CashCtrl API the client exercises:
// category trees per resource, the file store, and the three-step upload.
type fakeServer struct {
	t *testing.T

	mu         sync.Mutex
	nextID     int
	roots      map[string]int
	categories map[string]map[int]*fakeCategory
	files      map[int]*fakeFile
	staged     map[int][]byte
	stagedMeta map[int]struct {
		name       string
		mimeType   string
		categoryID *int
	}
	rejectNames map[string]bool
	calls       []string

	srv *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{
		t:          t,
		nextID:     1,
		roots:      map[string]int{},
		categories: map[string]map[int]*fakeCategory{},
		files:      map[int]*fakeFile{},
		staged:     map[int][]byte{},
		stagedMeta: map[int]struct {
			name       string
			mimeType   string
			categoryID *int
		}{},
		rejectNames: map[string]bool{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

// client returns a Client pointed at the fake server.
func (f *fakeServer) client(t *testing.T) *Client {
	client, err := New(&Config{
		BaseURL: f.srv.URL,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func (f *fakeServer) allocID() int {
	id := f.nextID
	f.nextID++
	return id
}

// resource returns the category store for a resource, creating its system
// root on first use.
func (f *fakeServer) resource(name string) map[int]*fakeCategory {
	store, ok := f.categories[name]
	if !ok {
		store = map[int]*fakeCategory{}
		rootID := f.allocID()
		store[rootID] = &fakeCategory{id: rootID, name: "Alle", system: true}
		f.categories[name] = store
		f.roots[name] = rootID
	}
	return store
}

// addCategory seeds a category under the given slash path and returns its
// id. Intermediate nodes are created as needed.
func (f *fakeServer) addCategory(resource, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureCategory(resource, path, nil)
}

func (f *fakeServer) ensureCategory(resource, path string, number *int) int {
	store := f.resource(resource)
	rootID := f.roots[resource]

	parentID := rootID
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		var found *fakeCategory
		for _, category := range store {
			if category.name == segment && category.parentID != nil && *category.parentID == parentID {
				found = category
				break
			}
		}
		if found == nil {
			pid := parentID
			found = &fakeCategory{id: f.allocID(), name: segment, parentID: &pid}
			store[found.id] = found
		}
		if i == len(segments)-1 && number != nil {
			found.number = number
		}
		parentID = found.id
	}
	return parentID
}

// addFile seeds a remote file. categoryPath "" means the root category.
func (f *fakeServer) addFile(name, categoryPath, lastUpdated string, content []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	file := &fakeFile{
		id:          f.allocID(),
		name:        name,
		lastUpdated: lastUpdated,
		content:     content,
	}
	if categoryPath != "" {
		id := f.ensureCategory("file", categoryPath, nil)
		file.categoryID = &id
	}
	f.files[file.id] = file
	return file.id
}

// categoryPaths returns the slash paths of all non-system categories of a
// resource, sorted.
func (f *fakeServer) categoryPaths(resource string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource(resource)
	var paths []string
	for _, category := range store {
		if category.system {
			continue
		}
		paths = append(paths, f.pathOf(store, category))
	}
	sort.Strings(paths)
	return paths
}

// filePaths returns the slash paths of all remote files, sorted.
func (f *fakeServer) filePaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource("file")
	var paths []string
	for _, file := range f.files {
		prefix := ""
		if file.categoryID != nil {
			prefix = f.pathOf(store, store[*file.categoryID])
		}
		paths = append(paths, prefix+"/"+file.name)
	}
	sort.Strings(paths)
	return paths
}

func (f *fakeServer) fileByPath(path string) *fakeFile {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource("file")
	for _, file := range f.files {
		prefix := ""
		if file.categoryID != nil {
			prefix = f.pathOf(store, store[*file.categoryID])
		}
		if prefix+"/"+file.name == path {
			return file
		}
	}
	return nil
}

// pathOf builds the path of a category excluding the system root.
func (f *fakeServer) pathOf(store map[int]*fakeCategory, category *fakeCategory) string {
	if category == nil || category.system {
		return ""
	}
	parent := ""
	if category.parentID != nil {
		parent = f.pathOf(store, store[*category.parentID])
	}
	return parent + "/" + category.name
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/upload/"):
		f.handleUploadPut(w, r)
		return
	case r.URL.Path == "/file/list.json":
		f.handleFileList(w)
		return
	case r.URL.Path == "/file/prepare.json":
		f.handleFilePrepare(w, r)
		return
	case r.URL.Path == "/file/persist.json":
		f.handleFilePersist(w, r)
		return
	case r.URL.Path == "/file/update.json":
		f.handleFileUpdate(w, r)
		return
	case r.URL.Path == "/file/delete.json":
		f.handleFileDelete(w, r)
		return
	case r.URL.Path == "/file/empty_archive.json":
		writeJSON(w, map[string]interface{}{"success": true})
		return
	case r.URL.Path == "/file/get":
		f.handleFileGet(w, r)
		return
	}

	segments := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(segments) == 3 && segments[1] == "category" {
		resource := segments[0]
		switch segments[2] {
		case "tree.json":
			f.handleCategoryTree(w, resource)
		case "create.json":
			f.handleCategoryCreate(w, r, resource)
		case "delete.json":
			f.handleCategoryDelete(w, r, resource)
		case "update.json":
			f.handleCategoryUpdate(w, r, resource)
		default:
			http.NotFound(w, r)
		}
		return
	}

	http.NotFound(w, r)
}

func (f *fakeServer) handleCategoryTree(w http.ResponseWriter, resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource(resource)
	var build func(parentID int) []interface{}
	build = func(parentID int) []interface{} {
		var nodes []interface{}
		for _, id := range sortedIDs(store) {
			category := store[id]
			if category.parentID == nil || *category.parentID != parentID {
				continue
			}
			entry := map[string]interface{}{
				"id":       category.id,
				"text":     category.name,
				"name":     category.name,
				"parentId": *category.parentID,
				"isSystem": category.system,
				"created":  "2024-01-01 00:00:00.0",
			}
			if category.number != nil {
				entry["number"] = *category.number
			}
			if children := build(category.id); children != nil {
				entry["data"] = children
			}
			nodes = append(nodes, entry)
		}
		return nodes
	}

	rootID := f.roots[resource]
	root := map[string]interface{}{
		"id":       rootID,
		"text":     store[rootID].name,
		"isSystem": true,
		"created":  "2024-01-01 00:00:00.0",
	}
	if children := build(rootID); children != nil {
		root["data"] = children
	}
	writeJSON(w, map[string]interface{}{"data": []interface{}{root}})
}

func (f *fakeServer) handleCategoryCreate(w http.ResponseWriter, r *http.Request, resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource(resource)
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, map[string]interface{}{
			"success": false,
			"errors":  []map[string]string{{"field": "name", "message": "is required"}},
		})
		return
	}

	parentID := f.roots[resource]
	if raw := r.URL.Query().Get("parentId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, map[string]interface{}{"success": false, "message": "invalid parentId"})
			return
		}
		if _, ok := store[id]; !ok {
			writeJSON(w, map[string]interface{}{"success": false, "message": "parent does not exist"})
			return
		}
		parentID = id
	}

	category := &fakeCategory{id: f.allocID(), name: name, parentID: &parentID}
	if raw := r.URL.Query().Get("number"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err == nil {
			category.number = &number
		}
	}
	store[category.id] = category
	writeJSON(w, map[string]interface{}{"success": true, "insertId": category.id})
}

func (f *fakeServer) handleCategoryDelete(w http.ResponseWriter, r *http.Request, resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource(resource)
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		// Deleting a node with children would orphan them.
		for _, category := range store {
			if category.parentID != nil && *category.parentID == id {
				writeJSON(w, map[string]interface{}{
					"success": false,
					"message": fmt.Sprintf("category %d still has children", id),
				})
				return
			}
		}
		delete(store, id)
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (f *fakeServer) handleCategoryUpdate(w http.ResponseWriter, r *http.Request, resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	store := f.resource(resource)
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, map[string]interface{}{"success": false, "message": "invalid id"})
		return
	}
	category, ok := store[id]
	if !ok {
		writeJSON(w, map[string]interface{}{"success": false, "message": "category not found"})
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		category.name = name
	}
	if raw := r.URL.Query().Get("number"); raw != "" {
		if number, err := strconv.Atoi(raw); err == nil {
			category.number = &number
		}
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (f *fakeServer) handleFileList(w http.ResponseWriter) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := []interface{}{}
	for _, id := range sortedFileIDs(f.files) {
		file := f.files[id]
		mimeType := file.mimeType
		if mimeType == "" {
			mimeType = "text/plain"
		}
		entry := map[string]interface{}{
			"id":          file.id,
			"name":        file.name,
			"size":        len(file.content),
			"mimeType":    mimeType,
			"lastUpdated": file.lastUpdated,
		}
		if file.categoryID != nil {
			entry["categoryId"] = *file.categoryID
		}
		data = append(data, entry)
	}
	writeJSON(w, map[string]interface{}{"data": data})
}

func (f *fakeServer) handleFilePrepare(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []struct {
		Name       string `json:"name"`
		MimeType   string `json:"mimeType"`
		CategoryID *int   `json:"categoryId"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("files")), &entries); err != nil || len(entries) != 1 {
		writeJSON(w, map[string]interface{}{"success": false, "message": "invalid files parameter"})
		return
	}
	if f.rejectNames[entries[0].Name] {
		writeJSON(w, map[string]interface{}{
			"success": false,
			"errors":  []map[string]string{{"field": "name", "message": "is not allowed"}},
		})
		return
	}

	id := f.allocID()
	f.stagedMeta[id] = struct {
		name       string
		mimeType   string
		categoryID *int
	}{name: entries[0].Name, mimeType: entries[0].MimeType, categoryID: entries[0].CategoryID}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"data": []map[string]interface{}{{
			"fileId":   id,
			"writeUrl": f.srv.URL + "/upload/" + strconv.Itoa(id),
		}},
	})
}

func (f *fakeServer) handleUploadPut(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/upload/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	content, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	f.staged[id] = content
	w.WriteHeader(http.StatusOK)
}

func (f *fakeServer) handleFilePersist(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		meta, ok := f.stagedMeta[id]
		if !ok {
			writeJSON(w, map[string]interface{}{"success": false, "message": "file was not prepared"})
			return
		}
		f.files[id] = &fakeFile{
			id:          id,
			name:        meta.name,
			mimeType:    meta.mimeType,
			categoryID:  meta.categoryID,
			lastUpdated: "2024-06-01 00:00:00.0",
			content:     f.staged[id],
		}
		delete(f.staged, id)
		delete(f.stagedMeta, id)
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (f *fakeServer) handleFileUpdate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		writeJSON(w, map[string]interface{}{"success": false, "message": "invalid id"})
		return
	}
	file, ok := f.files[id]
	if !ok {
		writeJSON(w, map[string]interface{}{"success": false, "message": "file not found"})
		return
	}
	replaceWith, err := strconv.Atoi(r.URL.Query().Get("replaceWith"))
	if err == nil {
		file.content = f.staged[replaceWith]
		file.lastUpdated = "2024-06-01 00:00:00.0"
		delete(f.staged, replaceWith)
		delete(f.stagedMeta, replaceWith)
	}
	if name := r.URL.Query().Get("name"); name != "" {
		file.name = name
	}
	if raw := r.URL.Query().Get("categoryId"); raw != "" && raw != "null" {
		if categoryID, err := strconv.Atoi(raw); err == nil {
			file.categoryID = &categoryID
		}
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (f *fakeServer) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		delete(f.files, id)
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (f *fakeServer) handleFileGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	file, ok := f.files[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(file.content)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func sortedIDs(store map[int]*fakeCategory) []int {
	ids := make([]int, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func sortedFileIDs(store map[int]*fakeFile) []int {
	ids := make([]int, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
