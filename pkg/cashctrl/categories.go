package cashctrl

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Category is a node of a resource's category tree, annotated with its
// hierarchical position in Unix-like file path format.
type Category struct {
	ID            int       `mapstructure:"id"`
	Name          string    `mapstructure:"name"`
	Text          string    `mapstructure:"text"`
	Path          string    `mapstructure:"-"`
	ParentID      *int      `mapstructure:"parentId"`
	Number        *int      `mapstructure:"number"`
	Created       Timestamp `mapstructure:"created"`
	CreatedBy     string    `mapstructure:"createdBy"`
	LastUpdated   Timestamp `mapstructure:"lastUpdated"`
	LastUpdatedBy string    `mapstructure:"lastUpdatedBy"`
	Cls           string    `mapstructure:"cls"`
	Leaf          bool      `mapstructure:"leaf"`
	DisableAdd    bool      `mapstructure:"disableAdd"`
	IsSystem      bool      `mapstructure:"isSystem"`
}

// CategoryTarget is a desired category path, optionally carrying the
// account number attached to the node (account trees only).
type CategoryTarget struct {
	Path   string
	Number *int
}

// systemRootPattern strips the synthetic system root segment the server
// prepends to every category tree.
var systemRootPattern = regexp.MustCompile("^/+[^/]+")

// ValidateCategoryPath checks that a target path is absolute and has no
// empty segments.
func ValidateCategoryPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("category path must start with '/', got %q", path)
	}
	for _, segment := range strings.Split(path[1:], "/") {
		if segment == "" {
			return fmt.Errorf("category path contains an empty segment: %q", path)
		}
	}
	return nil
}

// decodeCategory converts a raw tree node into a Category. The server sends
// numeric ids as JSON numbers and timestamps as strings, so decoding is
// weakly typed with a timestamp hook.
func decodeCategory(node map[string]interface{}) (Category, error) {
	var category Category
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &category,
		WeaklyTypedInput: true,
		DecodeHook: func(from, to reflect.Type, data interface{}) (interface{}, error) {
			if to == reflect.TypeOf(Timestamp{}) {
				s, ok := data.(string)
				if !ok {
					return data, nil
				}
				return parseTimestamp(s)
			}
			return data, nil
		},
	})
	if err != nil {
		return category, fmt.Errorf("failed to build category decoder: %w", err)
	}
	if err := decoder.Decode(node); err != nil {
		return category, fmt.Errorf("failed to decode category node: %w", err)
	}
	return category, nil
}

// flattenNodes recursively flattens a nested category hierarchy into a list
// of nodes with slash-joined paths. Children are nested under each node's
// "data" attribute.
func flattenNodes(nodes interface{}, parentPath string) ([]Category, error) {
	list, ok := nodes.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected category nodes to be a list, got %T", nodes)
	}

	var categories []Category
	for _, raw := range list {
		node, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected category node to be an object, got %T", raw)
		}
		name, _ := node["text"].(string)
		path := parentPath + "/" + name

		if children, ok := node["data"]; ok && children != nil {
			flattened, err := flattenNodes(children, path)
			if err != nil {
				return nil, err
			}
			categories = append(categories, flattened...)
		}

		category, err := decodeCategory(node)
		if err != nil {
			return nil, err
		}
		category.Path = path
		categories = append(categories, category)
	}
	return categories, nil
}

// ListCategories retrieves and flattens the category tree for the specified
// resource ("account", "file", etc.). Unless includeSystem is set, system
// nodes are dropped and the system root segment is stripped from each path.
// The result is sorted by path.
func (c *Client) ListCategories(ctx context.Context, resource string, includeSystem bool) ([]Category, error) {
	var response struct {
		Data interface{} `json:"data"`
	}
	if err := c.Get(ctx, resource+"/category/tree.json", nil, &response); err != nil {
		return nil, err
	}

	categories, err := flattenNodes(response.Data, "")
	if err != nil {
		return nil, err
	}

	if !includeSystem {
		filtered := categories[:0]
		for _, category := range categories {
			if category.IsSystem {
				continue
			}
			category.Path = systemRootPattern.ReplaceAllString(category.Path, "")
			filtered = append(filtered, category)
		}
		categories = filtered
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Path < categories[j].Path
	})
	return categories, nil
}

// UpdateCategories synchronizes the server's category tree for a resource
// with the given target paths. Missing categories and their ancestors are
// created; when prune is set, remote categories not covering any target
// are removed first, leaf to root.
func (c *Client) UpdateCategories(ctx context.Context, resource string, target []string, prune bool) error {
	targets := make([]CategoryTarget, len(target))
	for i, path := range target {
		targets[i] = CategoryTarget{Path: path}
	}
	return c.SyncCategories(ctx, resource, targets, prune)
}

// SyncCategories is the full category sync engine. It reconciles the remote
// tree with the target paths, keeping referential integrity: a create call
// never references a parent that is not already remote, and deletions run
// leaf to root in a single call. Targets may carry account numbers, which
// are set on creation and corrected on existing nodes.
func (c *Client) SyncCategories(ctx context.Context, resource string, targets []CategoryTarget, prune bool) error {
	// The root always exists remotely; a bare "/" target is dropped.
	filtered := make([]CategoryTarget, 0, len(targets))
	for _, target := range targets {
		if target.Path == "/" {
			continue
		}
		if err := ValidateCategoryPath(target.Path); err != nil {
			return err
		}
		filtered = append(filtered, target)
	}
	targets = filtered

	remote, err := c.ListCategories(ctx, resource, false)
	if err != nil {
		return err
	}
	index := make(map[string]Category, len(remote))
	for _, category := range remote {
		index[category.Path] = category
	}

	targetPaths := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if !seen[target.Path] {
			seen[target.Path] = true
			targetPaths = append(targetPaths, target.Path)
		}
	}

	if prune {
		var toDelete []string
		for _, category := range remote {
			covered := false
			for _, target := range targetPaths {
				if strings.HasPrefix(target, category.Path) {
					covered = true
					break
				}
			}
			if !covered {
				toDelete = append(toDelete, category.Path)
			}
		}
		if len(toDelete) > 0 {
			// Delete from leaf to root.
			sort.Sort(sort.Reverse(sort.StringSlice(toDelete)))
			ids := make([]string, len(toDelete))
			for i, path := range toDelete {
				ids[i] = strconv.Itoa(index[path].ID)
				delete(index, path)
			}
			err := c.Post(ctx, resource+"/category/delete.json",
				Params{"ids": strings.Join(ids, ",")}, nil)
			if err != nil {
				return fmt.Errorf("failed to delete categories: %w", err)
			}
		}
	}

	// Create missing categories, ancestors first.
	missing := make([]CategoryTarget, 0, len(targets))
	for _, target := range targets {
		if _, ok := index[target.Path]; !ok {
			missing = append(missing, target)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Path < missing[j].Path })

	created := make(map[string]bool)
	for _, target := range missing {
		segments := strings.Split(target.Path, "/")
		for i := 1; i < len(segments); i++ {
			nodePath := strings.Join(segments[:i+1], "/")
			parentPath := strings.Join(segments[:i], "/")
			if _, ok := index[nodePath]; ok {
				continue
			}
			params := Params{"name": segments[i]}
			if parentPath != "" {
				params["parentId"] = index[parentPath].ID
			}
			if nodePath == target.Path && target.Number != nil {
				params["number"] = *target.Number
			}
			var response struct {
				InsertID int `json:"insertId"`
			}
			err := c.Post(ctx, resource+"/category/create.json", params, &response)
			if err != nil {
				return fmt.Errorf("failed to create category %q: %w", nodePath, err)
			}
			index[nodePath] = Category{ID: response.InsertID, Name: segments[i], Path: nodePath}
			created[nodePath] = true
		}
	}

	// Correct numbers on pre-existing nodes.
	for _, target := range targets {
		if target.Number == nil || created[target.Path] {
			continue
		}
		existing, ok := index[target.Path]
		if !ok {
			continue
		}
		if existing.Number != nil && *existing.Number == *target.Number {
			continue
		}
		name := existing.Name
		if name == "" {
			name = existing.Text
		}
		params := Params{
			"id":     existing.ID,
			"name":   name,
			"number": *target.Number,
		}
		if existing.ParentID != nil {
			params["parentId"] = *existing.ParentID
		}
		err := c.Post(ctx, resource+"/category/update.json", params, nil)
		if err != nil {
			return fmt.Errorf("failed to update category %q: %w", target.Path, err)
		}
	}

	return nil
}
