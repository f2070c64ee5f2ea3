package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/md-rashed-zaman/rolodex/libs/db"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/migrations"
	flag "github.com/spf13/pflag"
)

const usage = `usage: rolodex-migrate [flags] up|down|version|force <version>

flags:
`

func main() {
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	all := flag.Bool("all", false, "with down: revert every migration instead of one step")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *databaseURL == "" {
		fatal("DATABASE_URL or --database-url is required")
	}

	m, err := db.NewMigrator(migrations.FS, migrations.Dir, *databaseURL)
	if err != nil {
		fatal(err.Error())
	}
	defer func() { _, _ = m.Close() }()

	if err := run(m, flag.Args(), *all); err != nil {
		fatal(err.Error())
	}
}

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

func run(m migrator, args []string, all bool) error {
	switch args[0] {
	case "up":
		return report("up", m.Up())
	case "down":
		if all {
			return report("down", m.Down())
		}
		return report("down", m.Steps(-1))
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version=none")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		var v int
		if _, err := fmt.Sscanf(args[1], "%d", &v); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return report("force", m.Force(v))
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func report(cmd string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Printf("%s: no change\n", cmd)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	fmt.Printf("%s: ok\n", cmd)
	return nil
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
