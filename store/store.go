package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"todo-tui/model"
)

// DefaultBackups is how many rotating timestamped backups Autosave keeps.
const DefaultBackups = 10

var (
	ErrMalformed     = errors.New("malformed task file")
	ErrNoValidBackup = errors.New("no valid backup found")
)

//go:embed schema.json
var schemaSource string

var taskFileSchema = jsonschema.MustCompileString("todo-tui.schema.json", schemaSource)

// Load reads the task collection from a JSON file.
// A missing file is a first run and yields an empty collection.
// A file that is not valid JSON or does not match the task file shape is an
// error wrapping ErrMalformed; its contents are never discarded.
func Load(path string) (*model.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewCollection(), nil
		}
		return nil, err
	}
	c, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save replaces path with the serialized collection.
// It writes a sibling temp file, syncs it and renames it over path, so readers
// see either the old complete file or the new one. An advisory lock on
// path+".lock" keeps concurrent writers from interleaving.
func Save(path string, c *model.Collection) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return writeAtomic(path, c)
}

// Autosave is Save preceded by a backup of the current file to path.bak and
// to a rotating timestamped path.bak.<ts>. keep bounds the rotating set;
// keep <= 0 disables backups.
func Autosave(path string, c *model.Collection, keep int) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if keep > 0 {
		if err := backup(path, keep); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}
	return writeAtomic(path, c)
}

// Recover repairs a malformed task file from the newest valid backup.
// The bad file is moved aside, not deleted. A healthy file is left alone.
// It returns a short report for the user.
func Recover(path string) (string, error) {
	_, err := Load(path)
	if err == nil {
		return fmt.Sprintf("%s is healthy; nothing to recover", filepath.Base(path)), nil
	}
	if !errors.Is(err, ErrMalformed) {
		return "", err
	}

	recovered, backupPath, err := loadLatestValidBackup(path)
	if err != nil {
		return "", err
	}

	corruptPath, err := moveCorruptFile(path)
	if err != nil {
		return "", fmt.Errorf("move corrupt file: %w", err)
	}
	if err := Save(path, recovered); err != nil {
		return "", fmt.Errorf("restore backup: %w", err)
	}

	msg := fmt.Sprintf("recovered %d tasks from %s", recovered.Len(), filepath.Base(backupPath))
	if corruptPath != "" {
		msg += fmt.Sprintf(" (bad file moved to %s)", filepath.Base(corruptPath))
	}
	return msg, nil
}

func decode(data []byte) (*model.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := taskFileSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, schemaMessage(err))
	}

	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if c.Items == nil {
		c.Items = []model.Task{}
	}
	seen := make(map[string]struct{}, len(c.Items))
	for i, t := range c.Items {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: /items/%d: duplicate id %q", ErrMalformed, i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return &c, nil
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, leaf.Message)
}

func writeAtomic(path string, c *model.Collection) error {
	if c.Items == nil {
		c = &model.Collection{Items: []model.Task{}}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func backup(path string, keep int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return pruneRotatingBackups(path, keep)
}

func pruneRotatingBackups(path string, keep int) error {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-keep] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func loadLatestValidBackup(path string) (*model.Collection, string, error) {
	candidates := make([]string, 0, DefaultBackups+1)
	latest := path + ".bak"
	if _, err := os.Stat(latest); err == nil {
		candidates = append(candidates, latest)
	}
	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, "", err
	}
	// Timestamped names sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(rotating)))
	candidates = append(candidates, rotating...)

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		c, err := decode(data)
		if err != nil {
			continue
		}
		return c, candidate, nil
	}
	return nil, "", ErrNoValidBackup
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405")
	corruptPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext))
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}
