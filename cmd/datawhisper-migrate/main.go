package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/datawhisper/datawhisper/internal/config"
	"github.com/datawhisper/datawhisper/internal/migrations"
	postgresengine "github.com/datawhisper/datawhisper/internal/query/postgres"
	"github.com/datawhisper/datawhisper/internal/snapshot"
	s3store "github.com/datawhisper/datawhisper/internal/storage/s3"
)

func main() {
	steps := flag.Int("steps", 0, "number of migration steps; 0 means all for up, 1 for down")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for the command")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: datawhisper-migrate [flags] up|down|status|snapshot")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.LoadFromEnv("datawhisper-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		fmt.Fprintln(os.Stderr, "DATAWHISPER_DB_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgresengine.Open(ctx, postgresengine.DBConfig{DSN: cfg.Database.DSN, MaxOpenConns: 2, MaxIdleConns: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runner := migrations.NewRunner()
	switch command {
	case "up":
		applied, err := runner.Up(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		applied, err := runner.Down(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d migration(s)\n", applied)
	case "status":
		statuses, err := runner.Status(ctx, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration status failed: %v\n", err)
			os.Exit(1)
		}
		for _, status := range statuses {
			state := "pending"
			if status.Applied {
				state = "applied"
			}
			fmt.Printf("%06d %s\n", status.Version, state)
		}
	case "snapshot":
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "object store error: %v\n", err)
			os.Exit(1)
		}
		result, err := snapshot.Export(ctx, db, store, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapshot export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("exported %d customer(s), %d bytes to %s and %s\n", result.Rows, result.Bytes, result.ArchiveKey, result.LatestKey)
	default:
		fmt.Fprintf(os.Stderr, "invalid command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
}
