package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/config"
	"github.com/gympal-app/backend/internal/db"
	"github.com/gympal-app/backend/internal/workouts"
	"github.com/gympal-app/backend/internal/workouts/backup"

	"gopkg.in/natefinch/lumberjack.v2"
)

// workout sessions google drive backup cmd,
// meant to be run periodically (cron) next to the main service

func main() {
	credentialsFile := flag.String(
		"gd-creds",
		"./gympal-drive-credentials.json",
		"google drive service account credentials json",
	)
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	logsPath := flag.String("logs-path", "/var/log/gympal/workouts-backup.log", "backup logs file path (empty for stdout)")
	shareWith := flag.String("share-with", "", "email address given read access to the backup files (empty to skip)")
	localDir := flag.String("local-dir", "", "also write a tar.gz export of all sessions into this dir (empty to skip)")
	reinit := flag.Bool("reinit", false, "reinitialize all again")
	destroy := flag.Bool("destroy", false, "destroy all files (warning!!) (try running more times, if more than 100 files are present)")

	flag.Parse()

	loggingSetup(*logsPath)

	log.Println("starting workout sessions backup ...")

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	if *reinit {
		log.Println("!! attention: will reinitialize all again...")
	}

	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read credentials file: %v", err)
	}

	ctx := context.Background()

	if *destroy {
		if err := backup.DestroyAllFiles(ctx, credentialsFileBytes); err != nil {
			log.Fatalf("destroy failed: %s", err)
		}
		log.Println("destroy done!")
		return
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	sessionsRepo := workouts.NewRepo(dbPool)

	s, err := backup.NewGoogleDriveBackupService(ctx, credentialsFileBytes, sessionsRepo, *shareWith)
	if err != nil {
		log.Fatalf("failed to create google drive backup service: %s", err)
	}

	baseTime := time.Now()

	if *reinit {
		if err := s.Reinit(ctx, baseTime); err != nil {
			log.Fatalf("reinit failed: %s", err)
		}
		log.Println("reinit done")
		return
	}

	backedUp, err := s.DoBackup(ctx, baseTime)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	log.Printf("backup done, %d sessions backed up", backedUp)

	if *localDir != "" {
		exported, archivePath, err := backup.ExportLocal(ctx, sessionsRepo, *localDir, baseTime)
		if err != nil {
			log.Fatalf("local export failed: %s", err)
		}
		if exported > 0 {
			log.Printf("local export done, %d sessions in %s", exported, archivePath)
		}
	}

	// let the main service know, so prometheus picks it up from there
	backup.TrySendMetrics(baseTime, backedUp, cfg.BackupUnixSocketAddrDir, cfg.BackupUnixSocketFileName)
}

func loggingSetup(logFileName string) {
	if logFileName == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   50,    // megabytes
		LocalTime: false, // false -> use UTC
		Compress:  true,  // disabled by default
	})
}
