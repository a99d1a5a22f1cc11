package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gympal-app/backend/internal/workouts"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	rootBackupsFolderName = "gympal-workouts-backup"
	sessionsFileChunkSize = 200 // number of workout sessions in one backup file
)

type sessionsSource interface {
	CompletedSince(ctx context.Context, since *time.Time) ([]workouts.Workout, error)
}

// GoogleDriveBackupService exports completed workout sessions as chunked JSON
// files in a dedicated google drive folder. Each run appends only sessions
// created after the newest existing backup file.
type GoogleDriveBackupService struct {
	sessions        sessionsSource
	service         *drive.Service
	backupsFolderId string
	shareWithEmail  string
}

func NewGoogleDriveBackupService(
	ctx context.Context,
	credentialsJson []byte,
	sessions sessionsSource,
	shareWithEmail string,
) (*GoogleDriveBackupService, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	rootFolderQuery := fmt.Sprintf("mimeType = 'application/vnd.google-apps.folder' and trashed = false and name = '%s'", rootBackupsFolderName)
	log.Println(rootFolderQuery)
	backupsFolder, err := driveService.
		Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	backupsFolderId := ""
	if len(backupsFolder.Files) == 1 {
		rbf := backupsFolder.Files[0]
		log.Printf("root backups folder found, %s: %s", rbf.Name, rbf.Id)
		backupsFolderId = rbf.Id
	} else if len(backupsFolder.Files) == 0 {
		log.Println("root backups folder not found, will recreate")
	} else {
		rbf := backupsFolder.Files[0]
		log.Printf("attention: found %d root backups folders, will take the first one: %s", len(backupsFolder.Files), rbf.Id)
		backupsFolderId = rbf.Id
	}

	s := &GoogleDriveBackupService{
		sessions:       sessions,
		service:        driveService,
		shareWithEmail: shareWithEmail,
	}

	if backupsFolderId == "" {
		log.Println("root backups folder not found, recreating ...")
		backupsFolderId, err = s.createRootBackupsFolder()
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", backupsFolderId)
	} else {
		log.Printf("found backups folder ID: %s", backupsFolderId)
	}

	s.backupsFolderId = backupsFolderId

	return s, nil
}

// Reinit drops the whole backups folder and recreates it from scratch.
func (s *GoogleDriveBackupService) Reinit(ctx context.Context, baseTime time.Time) error {
	log.Println("workout sessions backup reinit starting ...")

	err := s.service.Files.
		Delete(s.backupsFolderId).
		Do()
	if err != nil {
		return err
	}

	backupsFolderId, err := s.createRootBackupsFolder()
	if err != nil {
		return fmt.Errorf("failed to create root backups folder: %w", err)
	}

	log.Printf("new root backups folder created: %s", backupsFolderId)

	s.backupsFolderId = backupsFolderId

	_, err = s.DoBackup(ctx, baseTime)
	return err
}

// DoBackup exports sessions created after the newest existing backup file and
// returns how many were backed up.
func (s *GoogleDriveBackupService) DoBackup(ctx context.Context, baseTime time.Time) (int, error) {
	currentAllBackupFiles, err := s.getBackupFiles(s.backupsFolderId)
	if err != nil {
		return 0, err
	}

	if len(currentAllBackupFiles) == 0 {
		log.Println("backups empty, creating initial backup file ...")
		backedUp, err := s.createInitialBackupFile(ctx, baseTime)
		if err != nil {
			return 0, err
		}
		log.Println("initial backup files created!")
		return backedUp, nil
	}

	log.Println("current backup files:")
	lastCreatedAt := time.Time{}
	for _, file := range currentAllBackupFiles {
		createdAt, err := time.Parse(time.RFC3339, file.CreatedTime)
		if err != nil {
			log.Printf(" ---> error parsing created at for file %s: %s", file.Name, err)
			continue
		}
		log.Printf(" -- [%v]: %s (%s)\n", createdAt, file.Name, file.Id)

		if createdAt.After(lastCreatedAt) {
			lastCreatedAt = createdAt
		}
	}

	sessionsToBackup, err := s.sessions.CompletedSince(ctx, &lastCreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to get next backup sessions: %w", err)
	}

	if len(sessionsToBackup) == 0 {
		log.Println("no new workout sessions to backup, done")
		return 0, nil
	}

	log.Printf(" ---- backing up %d workout sessions since %v", len(sessionsToBackup), lastCreatedAt)

	nextBackupFileName := fmt.Sprintf("workout-sessions-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	fileCounter := 1
	for {
		nameExists := false
		for _, file := range currentAllBackupFiles {
			if file.Name == (nextBackupFileName + "_1.json") {
				nameExists = true
				break
			}
		}
		if nameExists {
			fileCounter++
			nextBackupFileName = fmt.Sprintf("%s_%d", nextBackupFileName, fileCounter)
		} else {
			break
		}
	}

	if err := s.backupSessions(sessionsToBackup, nextBackupFileName); err != nil {
		return 0, fmt.Errorf("failed to backup sessions: %w", err)
	}

	log.Printf("next backup since %v successfully saved: %s", lastCreatedAt, nextBackupFileName)

	return len(sessionsToBackup), nil
}

func (s *GoogleDriveBackupService) createRootBackupsFolder() (string, error) {
	backupsFolderMeta := &drive.File{
		Name:     rootBackupsFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	bfRes, err := s.service.
		Files.Create(backupsFolderMeta).
		Fields("id").
		Do()
	if err != nil {
		return "", err
	}

	if pId, err := s.updateFilePermission(bfRes.Id); err != nil {
		return bfRes.Id, fmt.Errorf("failed to create additional permission for root backup folder: %s", err)
	} else if pId != "" {
		log.Printf("permission %s created for root backup folder %s", pId, bfRes.Id)
	}

	return bfRes.Id, nil
}

func (s *GoogleDriveBackupService) createInitialBackupFile(ctx context.Context, baseTime time.Time) (int, error) {
	sessions, err := s.sessions.CompletedSince(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get workout sessions from db: %w", err)
	}

	log.Printf("initial backup of %d sessions starting ...", len(sessions))

	baseFileName := fmt.Sprintf("initial-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	if err := s.backupSessions(sessions, baseFileName); err != nil {
		return 0, fmt.Errorf("failed to backup sessions: %w", err)
	}

	return len(sessions), nil
}

func (s *GoogleDriveBackupService) backupSessions(sessions []workouts.Workout, baseFileName string) error {
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

		log.Printf("%s: create backup file with %d workout sessions [from %d to %d] ...", nextFileName, len(nextSessions), fromIndex, toIndex)

		nextSessionsJson, err := json.Marshal(nextSessions)
		if err != nil {
			return fmt.Errorf("%s failed to marshal workout sessions: %w", nextFileName, err)
		}

		log.Printf("%s: creating file on google drive ...", nextFileName)
		fileMeta := &drive.File{
			Name: nextFileName,
			// https://developers.google.com/drive/api/v3/mime-types
			MimeType: "application/vnd.google-apps.file",
			Parents:  []string{s.backupsFolderId},
		}

		nextBackupChunkFile, err := s.service.
			Files.Create(fileMeta).
			Fields("id, parents").
			Media(bytes.NewReader(nextSessionsJson)).
			Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sessions backup file: %w", nextFileName, err)
		}

		permissionId, err := s.updateFilePermission(nextBackupChunkFile.Id)
		if err != nil {
			return fmt.Errorf("%s: failed to create additional permission: %s", nextFileName, err)
		}

		log.Printf("%s: backup file [%s] [permission %s] saved: %s", nextFileName, fileMeta.Name, permissionId, nextBackupChunkFile.Id)

		fromIndex = toIndex
		toIndex = toIndex + sessionsFileChunkSize
		if toIndex >= len(sessions) {
			toIndex = len(sessions)
		}
	}

	return nil
}

func (s *GoogleDriveBackupService) updateFilePermission(fileId string) (string, error) {
	if s.shareWithEmail == "" {
		return "", nil
	}

	permission := &drive.Permission{
		EmailAddress: s.shareWithEmail,
		Type:         "user",
		Role:         "reader",
	}

	createdPermission, err := s.service.Permissions.
		Create(fileId, permission).
		Do()
	if err != nil {
		return "", err
	}

	return createdPermission.Id, nil
}

func (s *GoogleDriveBackupService) getBackupFiles(backupsFolderId string) ([]*drive.File, error) {
	filesQuery := fmt.Sprintf("'%s' in parents and mimeType != 'application/vnd.google-apps.folder' and trashed = false", backupsFolderId)
	backups, err := s.service.
		Files.List().
		Q(filesQuery).
		Fields("files(id, name, createdTime)").
		Do()
	if err != nil {
		return nil, err
	}

	return backups.Files, nil
}

// DestroyAllFiles removes every file visible to the service account. Drive
// lists at most 100 files per call, run repeatedly for larger trees.
func DestroyAllFiles(ctx context.Context, credentialsJson []byte) error {
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	allFiles, err := driveService.
		Files.List().
		Fields("files(id, name)").
		Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve files: %w", err)
	}

	if len(allFiles.Files) == 0 {
		log.Println("no files to destroy, done")
		return nil
	}

	for _, file := range allFiles.Files {
		if err := driveService.Files.Delete(file.Id).Do(); err != nil {
			log.Printf("failed to delete file %s (%s): %s", file.Name, file.Id, err)
			continue
		}
		log.Printf("file %s (%s) deleted", file.Name, file.Id)
	}

	return nil
}
