// Package database is a small registry of named tables rooted at one
// directory: it owns CreateTable/OpenTable/CloseTable/DeleteTable
// bookkeeping and persists the set of known table names so a database
// directory can be reopened and have its tables rediscovered.
package database

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	"github.com/arvinmehra/pagedb/config"
	"github.com/arvinmehra/pagedb/recordmgr"
)

const manifestName = "tables.json"

// manifestEntry is the on-disk record of one table's existence. The
// schema itself is not duplicated here (it lives in the table file's
// header page); only the name is needed to rediscover it.
type manifestEntry struct {
	Name string `json:"name"`
}

// Database is a directory of table files plus a manifest of their
// names. It is the home for tables that should survive process
// restarts; OpenEphemeral tables are not tracked here.
type Database struct {
	dir      string
	cfg      config.Config
	tables   map[string]*recordmgr.Table
	manifest map[string]manifestEntry
}

// Open opens (creating if necessary) a database rooted at dir.
func Open(dir string, cfg config.Config) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create database dir %s", dir)
	}
	d := &Database{
		dir:      dir,
		cfg:      cfg,
		tables:   make(map[string]*recordmgr.Table),
		manifest: make(map[string]manifestEntry),
	}
	if err := d.loadManifest(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) manifestPath() string { return filepath.Join(d.dir, manifestName) }

func (d *Database) tablePath(name string) string { return filepath.Join(d.dir, name+".tbl") }

func (d *Database) loadManifest() error {
	raw, err := os.ReadFile(d.manifestPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read manifest")
	}
	var entries []manifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return errors.Wrap(err, "decode manifest")
	}
	for _, e := range entries {
		d.manifest[e.Name] = e
	}
	return nil
}

// saveManifest persists the table-name index via config.Save's atomic
// write mechanism, so a crash mid-write never leaves a half-written
// manifest.
func (d *Database) saveManifest() error {
	entries := make([]manifestEntry, 0, len(d.manifest))
	for _, e := range d.manifest {
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}
	return atomic.WriteFile(d.manifestPath(), bytes.NewReader(data))
}

// CreateTable creates name's table file and registers it in the
// manifest. It does not open the table; call OpenTable afterward.
func (d *Database) CreateTable(name string, schema *recordmgr.Schema) error {
	if _, exists := d.manifest[name]; exists {
		return errors.Errorf("table %q already exists", name)
	}
	if err := recordmgr.CreateTable(d.tablePath(name), schema, d.cfg); err != nil {
		return err
	}
	d.manifest[name] = manifestEntry{Name: name}
	return d.saveManifest()
}

// OpenTable opens name, reusing the already-open handle if one exists.
func (d *Database) OpenTable(name string) (*recordmgr.Table, error) {
	if t, ok := d.tables[name]; ok {
		return t, nil
	}
	if _, exists := d.manifest[name]; !exists {
		return nil, errors.Errorf("table %q not found", name)
	}
	t, err := recordmgr.OpenTable(d.tablePath(name), d.cfg)
	if err != nil {
		return nil, err
	}
	d.tables[name] = t
	return t, nil
}

// OpenEphemeral opens a memory-backed, unmanifested scratch table. It
// is never rediscovered by a later Open and DeleteTable does not apply
// to it; the caller closes it directly via the returned *recordmgr.Table.
func (d *Database) OpenEphemeral(name string, schema *recordmgr.Schema) (*recordmgr.Table, error) {
	return recordmgr.OpenEphemeral(name, schema, d.cfg)
}

// CloseTable flushes and releases name's open handle, if any.
func (d *Database) CloseTable(name string) error {
	t, ok := d.tables[name]
	if !ok {
		return nil
	}
	if err := t.CloseTable(); err != nil {
		return err
	}
	delete(d.tables, name)
	return nil
}

// DeleteTable closes (if open) and removes name's table file and
// manifest entry.
func (d *Database) DeleteTable(name string) error {
	if err := d.CloseTable(name); err != nil {
		return err
	}
	if _, exists := d.manifest[name]; !exists {
		return errors.Errorf("table %q not found", name)
	}
	if err := recordmgr.DeleteTable(d.tablePath(name)); err != nil {
		return err
	}
	delete(d.manifest, name)
	return d.saveManifest()
}

// TableNames returns the manifest's known table names.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.manifest))
	for n := range d.manifest {
		names = append(names, n)
	}
	return names
}

// Close closes every currently open table handle.
func (d *Database) Close() error {
	for name, t := range d.tables {
		if err := t.CloseTable(); err != nil {
			return err
		}
		delete(d.tables, name)
	}
	return nil
}
