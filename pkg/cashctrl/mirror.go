package cashctrl

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/macxred/cashctrl-go/pkg/localdir"
)

// MirrorOptions control how a local directory is mirrored onto the remote
// file store.
type MirrorOptions struct {
	// DeleteFiles removes remote files without a local counterpart, as well
	// as duplicated remote paths, then empties the recycle bin so released
	// references allow category deletion.
	DeleteFiles bool

	// DeleteCategories removes remote categories (folders) no local
	// sub-folder maps onto.
	DeleteCategories bool
}

// localFile is a local file mapped to its remote position.
type localFile struct {
	entry          localdir.Entry
	remotePath     string
	remoteCategory string
}

// MirrorDirectory recursively mirrors a local directory on the CashCtrl
// server: local sub-folders map to remote categories and local files to
// remote files. Missing files and categories are created, files whose local
// copy is newer than the remote one are replaced, and deletions are applied
// per opts. Per-file upload failures are collected and the sweep continues.
func (c *Client) MirrorDirectory(ctx context.Context, fsys afero.Fs, dir string, opts MirrorOptions) error {
	entries, err := localdir.List(fsys, dir, localdir.Options{
		Recursive:   true,
		ExcludeDirs: true,
	})
	if err != nil {
		return err
	}

	locals := make([]localFile, len(entries))
	localByRemotePath := make(map[string]bool, len(entries))
	categoryTargets := make(map[string]bool)
	for i, entry := range entries {
		remotePath := "/" + entry.Path
		remoteCategory := path.Dir(remotePath)
		locals[i] = localFile{
			entry:          entry,
			remotePath:     remotePath,
			remoteCategory: remoteCategory,
		}
		localByRemotePath[remotePath] = true
		if remoteCategory != "/" {
			categoryTargets[remoteCategory] = true
		}
	}

	remote, err := c.ListFiles(ctx)
	if err != nil {
		return err
	}

	if opts.DeleteFiles {
		var deleteIDs []int
		seen := make(map[string]bool, len(remote))
		kept := remote[:0]
		for _, file := range remote {
			if seen[file.Path] || !localByRemotePath[file.Path] {
				deleteIDs = append(deleteIDs, file.ID)
				continue
			}
			seen[file.Path] = true
			kept = append(kept, file)
		}
		remote = kept
		if len(deleteIDs) > 0 {
			c.log.Info("deleting remote files without local counterpart", "count", len(deleteIDs))
			if err := c.DeleteFiles(ctx, deleteIDs, true); err != nil {
				return err
			}
		}
		// Release references held by archived files before category sync.
		if err := c.EmptyArchive(ctx); err != nil {
			return err
		}
	}

	targets := make([]string, 0, len(categoryTargets))
	for target := range categoryTargets {
		targets = append(targets, target)
	}
	if err := c.UpdateCategories(ctx, "file", targets, opts.DeleteCategories); err != nil {
		return err
	}

	categories, err := c.ListCategories(ctx, "file", false)
	if err != nil {
		return err
	}
	categoryIDs := make(map[string]*int, len(categories)+1)
	categoryIDs["/"] = nil
	for _, category := range categories {
		id := category.ID
		categoryIDs[category.Path] = &id
	}

	seen := make(map[string]bool, len(remote))
	remoteByPath := make(map[string]File, len(remote))
	for _, file := range remote {
		if seen[file.Path] {
			return fmt.Errorf("remote path %q is duplicated; mirror with DeleteFiles "+
				"or remove the duplicates manually", file.Path)
		}
		seen[file.Path] = true
		remoteByPath[file.Path] = file
	}

	var result *multierror.Error
	for _, local := range locals {
		existing, exists := remoteByPath[local.remotePath]

		uploadOpts := UploadOptions{CategoryID: categoryIDs[local.remoteCategory]}
		switch {
		case !exists:
			c.log.Debug("uploading new file", "path", local.remotePath)
		case local.entry.ModTime.After(existing.LastUpdated.Time):
			c.log.Debug("replacing outdated file", "path", local.remotePath)
			uploadOpts.ReplaceID = existing.ID
		default:
			continue
		}

		_, err := c.UploadFile(ctx, fsys, filepath.Join(dir, filepath.FromSlash(local.entry.Path)), uploadOpts)
		if err != nil {
			result = multierror.Append(result,
				fmt.Errorf("failed to mirror %q: %w", local.remotePath, err))
		}
	}
	return result.ErrorOrNil()
}
