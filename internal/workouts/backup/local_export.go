package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gympal-app/backend/internal/workouts"
	"github.com/gympal-app/backend/pkg"
)

// ExportLocal writes all completed workout sessions as chunked json files
// into a fresh subdirectory of targetDir and packs that subdirectory into a
// .tar.gz archive next to it. Returns the number of exported sessions and
// the archive path; zero sessions produce no files at all.
func ExportLocal(
	ctx context.Context,
	sessions sessionsSource,
	targetDir string,
	baseTime time.Time,
) (int, string, error) {
	exists, err := pkg.PathExists(targetDir, true)
	if err != nil {
		return 0, "", fmt.Errorf("check target dir: %w", err)
	}
	if !exists {
		if err := os.MkdirAll(targetDir, os.ModePerm); err != nil {
			return 0, "", fmt.Errorf("create target dir: %w", err)
		}
	}

	allSessions, err := sessions.CompletedSince(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("get workout sessions: %w", err)
	}
	if len(allSessions) == 0 {
		log.Println("no workout sessions to export")
		return 0, "", nil
	}

	exportName := fmt.Sprintf("workout-sessions-export-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	exportDir := filepath.Join(targetDir, exportName)
	if err := os.MkdirAll(exportDir, os.ModePerm); err != nil {
		return 0, "", fmt.Errorf("create export dir: %w", err)
	}

	if err := writeSessionChunks(allSessions, exportDir, exportName); err != nil {
		return 0, "", err
	}

	archivePath := exportDir + ".tar.gz"
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return 0, "", fmt.Errorf("create archive file: %w", err)
	}

	if err := pkg.Compress(exportDir, archiveFile); err != nil {
		_ = archiveFile.Close()
		return 0, "", fmt.Errorf("compress export dir: %w", err)
	}
	if err := archiveFile.Close(); err != nil {
		return 0, "", fmt.Errorf("close archive file: %w", err)
	}

	log.Printf("%d workout sessions exported to %s", len(allSessions), archivePath)

	return len(allSessions), archivePath, nil
}

func writeSessionChunks(sessions []workouts.Workout, exportDir, baseFileName string) error {
	chunks := len(sessions) / sessionsFileChunkSize
	fromIndex, toIndex := 0, sessionsFileChunkSize
	if len(sessions)%sessionsFileChunkSize > 0 {
		chunks++
	}
	if len(sessions) < sessionsFileChunkSize {
		toIndex = len(sessions)
	}

	for i := 1; i <= chunks; i++ {
		nextFileName := fmt.Sprintf("%s_%d.json", baseFileName, i)
		nextSessions := sessions[fromIndex:toIndex]

		log.Printf("%s: writing %d workout sessions [from %d to %d] ...", nextFileName, len(nextSessions), fromIndex, toIndex)

		nextSessionsJson, err := json.Marshal(nextSessions)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal workout sessions: %w", nextFileName, err)
		}

		if err := os.WriteFile(filepath.Join(exportDir, nextFileName), nextSessionsJson, 0644); err != nil {
			return fmt.Errorf("%s: failed to write chunk file: %w", nextFileName, err)
		}

		fromIndex = toIndex
		toIndex = toIndex + sessionsFileChunkSize
		if toIndex >= len(sessions) {
			toIndex = len(sessions)
		}
	}

	return nil
}
