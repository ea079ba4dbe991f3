// Command sqlgen prints the SQL statements described by a YAML script, and
// optionally executes them.
//
//	sqlgen [-dialect name|all] [-config db.yaml -exec] [-watch] script.yaml
//
// A script lists entities (table, columns and column flags) and statements
// (insert, update, delete or select, with values, keys, equality filters,
// ordering and paging):
//
//	dialect: sqlserver
//	entities:
//	  - name: UserInfo
//	    table: Base_UserInfo
//	    columns:
//	      - {field: Id, key: true, auto: true}
//	      - {field: Name}
//	      - {field: Sex}
//	statements:
//	  - kind: insert
//	    entity: UserInfo
//	    rows: [{Name: Sarah, Sex: 2}, {Name: Kate, Sex: 2}]
//	  - kind: select
//	    entity: UserInfo
//	    where: {Sex: 2}
//	    order: [-Id]
//	    page: {size: 10, index: 1}
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/ido50/sqlgen"
	"github.com/ido50/sqlgen/connect"
)

type options struct {
	script  string
	dialect string
	config  string
	exec    bool
	watch   bool
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dialect, "dialect", "", "dialect to generate statements for, or \"all\" (defaults to the script's)")
	flag.StringVar(&opts.config, "config", "", "connection configuration file (YAML)")
	flag.BoolVar(&opts.exec, "exec", false, "execute the statements on the configured database")
	flag.BoolVar(&opts.watch, "watch", false, "print the statements again whenever the script changes")
	flag.BoolVar(&opts.verbose, "v", false, "log executed statements")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] script.yaml\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.script = flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "sqlgen: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, opts options) error {
	if opts.exec && opts.config == "" {
		return fmt.Errorf("-exec requires -config")
	}

	if err := render(w, opts); err != nil {
		if !opts.watch {
			return err
		}
		fmt.Fprintf(w, "-- error: %s\n", err)
	}

	if opts.exec {
		if err := execute(ctx, w, opts); err != nil {
			return err
		}
	}

	if opts.watch {
		return watch(ctx, w, opts)
	}
	return nil
}

// dialects returns the dialects to render for: the -dialect flag, the
// connection config's database type, or the script's dialect.
func dialects(opts options, s *script) ([]sqlgen.Dialect, error) {
	name := opts.dialect
	if name == "" && opts.config != "" {
		cfg, err := connect.LoadConfig(opts.config)
		if err != nil {
			return nil, err
		}
		return []sqlgen.Dialect{cfg.Type.Dialect()}, nil
	}
	if name == "" {
		name = s.Dialect
	}
	if name == "" || strings.EqualFold(name, "all") {
		return []sqlgen.Dialect{sqlgen.SQLServer, sqlgen.MySQL, sqlgen.PostgreSQL, sqlgen.SQLite, sqlgen.Oracle}, nil
	}

	t, err := sqlgen.ParseDatabaseType(name)
	if err != nil {
		return nil, err
	}
	return []sqlgen.Dialect{t.Dialect()}, nil
}

func render(w io.Writer, opts options) error {
	s, err := loadScript(opts.script)
	if err != nil {
		return err
	}

	ds, err := dialects(opts, s)
	if err != nil {
		return err
	}

	for _, d := range ds {
		gen, err := s.build(d)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Name(), err)
		}
		for _, g := range gen {
			fmt.Fprintf(w, "-- %s (%s)\n", g.name, d.Name())
			for _, stmt := range g.stmts {
				printStatement(w, stmt)
				if count, ok := stmt.Count(); ok {
					fmt.Fprintln(w, "-- total rows")
					printStatement(w, count)
				}
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func printStatement(w io.Writer, stmt sqlgen.Statement) {
	asSQL := stmt.SQL()
	if !strings.HasSuffix(asSQL, ";") {
		asSQL += ";"
	}
	fmt.Fprintln(w, asSQL)
	for _, p := range stmt.Params().All() {
		fmt.Fprintf(w, "--   %s = %#v\n", p.Name, p.Value)
	}
}

func execute(ctx context.Context, w io.Writer, opts options) error {
	cfg, err := connect.LoadConfig(opts.config)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := connect.Open(ctx, cfg, sqlgen.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := loadScript(opts.script)
	if err != nil {
		return err
	}
	gen, err := s.build(db.Dialect())
	if err != nil {
		return err
	}

	for _, g := range gen {
		if g.kind == "select" {
			if err := queryRows(ctx, w, db, g); err != nil {
				return err
			}
			continue
		}

		affected, err := db.ExecAll(ctx, g.stmts)
		if err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
		fmt.Fprintf(w, "-- %s: %d rows affected\n", g.name, affected)
	}
	return nil
}

func queryRows(ctx context.Context, w io.Writer, db *sqlgen.DB, g generated) error {
	stmt := g.stmts[0]
	if count, ok := stmt.Count(); ok {
		var total int64
		if err := db.GetRow(ctx, &total, count); err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
		fmt.Fprintf(w, "-- %s: %d rows in total\n", g.name, total)
	}

	rows, err := db.Query(ctx, stmt)
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
		fmt.Fprintf(w, "%v\n", row)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	fmt.Fprintf(w, "-- %s: %d rows\n", g.name, n)
	return nil
}

// watch renders the script again whenever it is written to, until ctx is
// done. Editors that replace the file are handled by watching its
// directory.
func watch(ctx context.Context, w io.Writer, opts options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path, err := filepath.Abs(opts.script)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			fmt.Fprintf(w, "-- %s changed\n", opts.script)
			if err := render(w, opts); err != nil {
				fmt.Fprintf(w, "-- error: %s\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
