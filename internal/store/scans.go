package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jward/deploc/internal/deptree"
)

// SaveScan stores scan and every node of root in one transaction and
// returns the new scan ID. Nodes are written in pre-order so package IDs
// follow tree order. Per-language rows come from each node's
// LanguageTotals.
func (s *Store) SaveScan(scan *Scan, root *deptree.Node) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("save scan: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO scans
		(root, counter, started_at, duration_ns,
		 app_blank, app_comment, app_code, app_files,
		 dep_blank, dep_comment, dep_code, dep_files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.Root, scan.Counter, scan.StartedAt.UTC(), int64(scan.Duration),
		scan.Application.Blank, scan.Application.Comment, scan.Application.Code, scan.Application.NumFiles,
		scan.Dependencies.Blank, scan.Dependencies.Comment, scan.Dependencies.Code, scan.Dependencies.NumFiles,
	)
	if err != nil {
		return 0, fmt.Errorf("save scan: insert scan: %w", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save scan: %w", err)
	}

	ids := make(map[*deptree.Node]int64)
	var walkErr error
	root.Walk(func(node *deptree.Node, depth int) {
		if walkErr != nil {
			return
		}
		var parentID *int64
		if id, ok := ids[node.Parent]; ok && node != root {
			parentID = &id
		}
		id, err := insertPackageTx(tx, scanID, parentID, node, depth)
		if err != nil {
			walkErr = fmt.Errorf("save scan: package %s: %w", node.ID(), err)
			return
		}
		ids[node] = id
	})
	if walkErr != nil {
		return 0, walkErr
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save scan: commit: %w", err)
	}
	scan.ID = scanID
	scan.Packages = len(ids)
	return scanID, nil
}

func insertPackageTx(tx *sql.Tx, scanID int64, parentID *int64, node *deptree.Node, depth int) (int64, error) {
	var total deptree.Aggregate
	for _, agg := range node.LanguageTotals {
		total.Add(agg)
	}
	res, err := tx.Exec(`INSERT INTO packages
		(scan_id, parent_id, name, version, path, real_path, depth, blank, comment, code, num_files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scanID, parentID, node.Name, node.Version, node.Path, node.RealPath, depth,
		total.Blank, total.Comment, total.Code, total.NumFiles,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for lang, agg := range node.LanguageTotals {
		_, err := tx.Exec(`INSERT INTO package_languages
			(package_id, language, blank, comment, code, num_files)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, lang, agg.Blank, agg.Comment, agg.Code, agg.NumFiles,
		)
		if err != nil {
			return 0, fmt.Errorf("language %s: %w", lang, err)
		}
	}
	return id, nil
}

const scanColumns = `s.id, s.root, s.counter, s.started_at, s.duration_ns,
	s.app_blank, s.app_comment, s.app_code, s.app_files,
	s.dep_blank, s.dep_comment, s.dep_code, s.dep_files,
	(SELECT COUNT(*) FROM packages p WHERE p.scan_id = s.id)`

func scanScan(scanner interface{ Scan(...any) error }) (*Scan, error) {
	var sc Scan
	var durationNS int64
	err := scanner.Scan(&sc.ID, &sc.Root, &sc.Counter, &sc.StartedAt, &durationNS,
		&sc.Application.Blank, &sc.Application.Comment, &sc.Application.Code, &sc.Application.NumFiles,
		&sc.Dependencies.Blank, &sc.Dependencies.Comment, &sc.Dependencies.Code, &sc.Dependencies.NumFiles,
		&sc.Packages,
	)
	if err != nil {
		return nil, err
	}
	sc.Duration = time.Duration(durationNS)
	return &sc, nil
}

// Scans returns stored scans, newest first. A limit <= 0 returns all.
func (s *Store) Scans(limit int) ([]*Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans s ORDER BY s.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		sc, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

// ScanByID returns one scan, or nil when it does not exist.
func (s *Store) ScanByID(id int64) (*Scan, error) {
	row := s.db.QueryRow(`SELECT `+scanColumns+` FROM scans s WHERE s.id = ?`, id)
	sc, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query scan %d: %w", id, err)
	}
	return sc, nil
}

// PackagesByScan returns the packages of a scan in tree (pre-order) order.
func (s *Store) PackagesByScan(scanID int64) ([]*Package, error) {
	rows, err := s.db.Query(`SELECT id, scan_id, parent_id, name, version, path, real_path, depth,
		blank, comment, code, num_files
		FROM packages WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var pkgs []*Package
	for rows.Next() {
		var p Package
		var parentID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.ScanID, &parentID, &p.Name, &p.Version, &p.Path, &p.RealPath, &p.Depth,
			&p.Totals.Blank, &p.Totals.Comment, &p.Totals.Code, &p.Totals.NumFiles); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		if parentID.Valid {
			p.ParentID = &parentID.Int64
		}
		pkgs = append(pkgs, &p)
	}
	return pkgs, rows.Err()
}

// LanguagesByPackage returns the per-language totals stored for a package.
func (s *Store) LanguagesByPackage(packageID int64) (deptree.LanguageTotals, error) {
	rows, err := s.db.Query(`SELECT language, blank, comment, code, num_files
		FROM package_languages WHERE package_id = ?`, packageID)
	if err != nil {
		return nil, fmt.Errorf("query languages: %w", err)
	}
	defer rows.Close()

	totals := make(deptree.LanguageTotals)
	for rows.Next() {
		var lang string
		var agg deptree.Aggregate
		if err := rows.Scan(&lang, &agg.Blank, &agg.Comment, &agg.Code, &agg.NumFiles); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		totals[lang] = agg
	}
	return totals, rows.Err()
}

// DeleteScan removes a scan and its packages.
func (s *Store) DeleteScan(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM scans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete scan %d: %w", id, err)
	}
	return nil
}
