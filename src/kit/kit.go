// Package kit assembles kits (tarballs of modules' compiled output and runtime libraries)
// and publishes them to a remote server.
package kit

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
)

var log = logging.Log

// Extension is the file extension of every kit.
const Extension = ".tar.xz"

// mtime is the time we attach for the modification time of all files.
var mtime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Entries returns what goes into a kit for the given modules: each one's compiled src output
// and runtime libraries, under a directory named after the module.
func Entries(bc *core.BuildContext, modules []string) ([]core.KitEntry, error) {
	entries := []core.KitEntry{}
	for _, name := range modules {
		m, err := bc.Modules.Module(name)
		if err != nil {
			return nil, err
		}
		st, err := m.Subtree(core.SrcSubtree)
		if err != nil {
			return nil, err
		}
		if st.SourceExists() {
			entries = append(entries, core.KitEntry{Source: st.ClassesDir(), Path: path.Join(name, "classes")})
		}
		if st.ResourcesExist() {
			entries = append(entries, core.KitEntry{Source: st.ResourcesRoot(), Path: path.Join(name, "resources")})
		}
		cp, err := st.ResolvedClasspath(core.ModuleOnly, core.RuntimeClasspath, bc.Variants)
		if err != nil {
			return nil, err
		}
		for _, p := range cp.Paths() {
			if strings.HasSuffix(p, ".jar") {
				entries = append(entries, core.KitEntry{Source: p, Path: path.Join(name, "lib", filepath.Base(p))})
			}
		}
	}
	return entries, nil
}

// A Packager creates kits on the local filesystem and publishes them over HTTP.
type Packager struct {
	publisher *Publisher
}

// NewPackager returns a new Packager. publisher may be nil if nothing is to be published.
func NewPackager(publisher *Publisher) *Packager {
	return &Packager{publisher: publisher}
}

// Create writes an xz-compressed tarball containing the given entries to dest.
// Directories are added recursively; entries whose source doesn't exist are skipped.
func (p *Packager) Create(ctx context.Context, dest string, entries []core.KitEntry) (int64, error) {
	if err := fs.EnsureDir(dest); err != nil {
		return 0, err
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := write(ctx, f, dest, entries); err != nil {
		os.Remove(dest)
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func write(ctx context.Context, w io.Writer, output string, entries []core.KitEntry) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(xw)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fs.PathExists(entry.Source) {
			log.Warning("Not adding %s to kit, it doesn't exist", entry.Source)
			continue
		}
		if err := fs.Walk(entry.Source, func(name string, isDir bool) error {
			if isDir || name == output {
				return nil // directories are implicit; don't write the output into itself
			}
			rel, err := filepath.Rel(entry.Source, name)
			if err != nil {
				return err
			}
			return addFile(tw, name, path.Join(entry.Path, filepath.ToSlash(rel)))
		}); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return xw.Close()
}

func addFile(tw *tar.Writer, filename, name string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = path.Clean(name)
	// Zero out all timestamps.
	hdr.ModTime = mtime
	hdr.AccessTime = mtime
	hdr.ChangeTime = mtime
	// Strip user/group ids.
	hdr.Uid = 0
	hdr.Gid = 0
	hdr.Uname = ""
	hdr.Gname = ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Publish uploads a kit previously written by Create.
func (p *Packager) Publish(ctx context.Context, name, file string) error {
	if p.publisher == nil {
		return ErrNoPublishURL
	}
	return p.publisher.Publish(ctx, name, file)
}
