package spec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	specExt        = ".json"
	patchSuffix    = ".patch.json"
	replaceSuffix  = ".replace.json"
	obsoleteSuffix = ".obsolete.json"
	commonFileName = "_common.json"
	commonFolder   = "Core"
)

// Denylist is a set of base file names that are never ingested.
type Denylist map[string]struct{}

// NewDenylist builds a Denylist from file names.
func NewDenylist(names ...string) Denylist {
	d := make(Denylist, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			d[n] = struct{}{}
		}
	}
	return d
}

// Contains reports whether name is denied. Safe on a nil receiver.
func (d Denylist) Contains(name string) bool {
	_, ok := d[name]
	return ok
}

// DefaultDenylist lists APIs that are unsupported or still need to be mapped.
var DefaultDenylist = NewDenylist(
	"xpack.ml.delete_filter.json",
	"xpack.ml.get_filters.json",
	"xpack.ml.put_filter.json",

	// new APIs that still need to be mapped
	"xpack.license.get_basic_status.json",
	"xpack.license.post_start_basic.json",
	"xpack.ml.delete_calendar.json",
	"xpack.ml.delete_calendar_event.json",
	"xpack.ml.delete_calendar_job.json",
	"xpack.ml.get_calendar_events.json",
	"xpack.ml.get_calendars.json",
	"xpack.ml.info.json",
	"xpack.ml.post_calendar_events.json",
	"xpack.ml.put_calendar.json",
	"xpack.ml.put_calendar_job.json",
	"xpack.ml.get_calendar_job.json",
	"xpack.ssl.certificates.json",

	// 6.4
	"xpack.ml.update_filter.json",
	"xpack.security.delete_privileges.json",
	"xpack.security.get_privileges.json",
	"xpack.security.has_privileges.json",
	"xpack.security.put_privilege.json",
	"xpack.security.put_privileges.json",
	"nodes.reload_secure_settings.json",
)

// CommonFile returns the location of the shared common-parameters document.
func CommonFile(root string) string {
	return filepath.Join(root, commonFolder, commonFileName)
}

// Walk returns the base specification files below root, sorted by path.
//
// Files are taken from every directory below root. When folders is not empty
// only directories whose base name is listed contribute files; deeper
// directories are still visited so nested matches are found. Overlay,
// obsolete and common files are never returned, nor are denied names.
func Walk(root string, folders []string, deny Denylist) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, newSpecError(InputError, root, err, "spec root: %v", err)
	}
	if !st.IsDir() {
		return nil, newSpecError(InputError, root, nil, "spec root is not a directory")
	}
	common := CommonFile(root)
	if _, err := os.Stat(common); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newSpecError(MissingPrerequisite, common, err, "expected to find %s", common)
		}
		return nil, newSpecError(InputError, common, err, "stat common parameters: %v", err)
	}

	allowed := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		if f = strings.TrimSpace(f); f != "" {
			allowed[f] = struct{}{}
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		if dir == filepath.Clean(root) {
			return nil
		}
		if len(allowed) > 0 {
			if _, ok := allowed[filepath.Base(dir)]; !ok {
				return nil
			}
		}
		if isBaseSpec(d.Name(), deny) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, newSpecError(InputError, root, err, "walk spec tree: %v", err)
	}
	sort.Strings(files)
	return files, nil
}

func isBaseSpec(name string, deny Denylist) bool {
	switch {
	case !strings.HasSuffix(name, specExt):
		return false
	case strings.HasSuffix(name, commonFileName):
		return false
	case strings.HasSuffix(name, obsoleteSuffix),
		strings.HasSuffix(name, patchSuffix),
		strings.HasSuffix(name, replaceSuffix):
		return false
	case deny.Contains(name):
		return false
	}
	return true
}
