// ABOUTME: Maintenance utility for the submission journal database.
// ABOUTME: Backs up the journal and prunes sent submissions and old load records, with a dry-run mode.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/contatos/db"
)

func main() {
	dbPath := flag.String("db", db.DefaultPath(), "Path to the journal database")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create a backup before pruning")
	olderThan := flag.Duration("older-than", 90*24*time.Hour, "Prune sent submissions last updated before this age")
	keepLoads := flag.Int("keep-loads", 100, "Number of member table load records to keep")
	flag.Parse()

	if err := prune(*dbPath, *dryRun, *backup, *olderThan, *keepLoads); err != nil {
		log.Fatalf("Journal maintenance failed: %v", err)
	}

	log.Println("Journal maintenance completed successfully")
}

func prune(dbPath string, dryRun, createBackup bool, olderThan time.Duration, keepLoads int) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		log.Printf("Creating backup: %s", backupPath)
		if err := db.Backup(database, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created successfully")
	}

	stats, err := db.GetJournalStats(database)
	if err != nil {
		return err
	}
	log.Printf("Journal: %d pending, %d sent, %d failed submissions; %d load records",
		stats.Pending, stats.Sent, stats.Failed, stats.RosterLoads)

	cutoff := time.Now().Add(-olderThan)

	if dryRun {
		log.Printf("[DRY RUN] Would perform the following actions:")
		log.Printf("[DRY RUN] - Delete sent submissions last updated before %s", cutoff.Format("2006-01-02 15:04"))
		if stats.RosterLoads > keepLoads {
			log.Printf("[DRY RUN] - Delete %d load records, keeping the newest %d", stats.RosterLoads-keepLoads, keepLoads)
		}
		if stats.Pending+stats.Failed > 0 {
			log.Printf("[DRY RUN] - Keep %d unsent submissions", stats.Pending+stats.Failed)
		}
		return nil
	}

	n, err := db.PruneSentSubmissions(database, cutoff)
	if err != nil {
		return err
	}
	log.Printf("Deleted %d sent submissions", n)

	n, err = db.PruneRosterLoads(database, keepLoads)
	if err != nil {
		return err
	}
	log.Printf("Deleted %d load records", n)

	return nil
}
