package backup

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/telemetry/metrics"
	"github.com/gympal-app/backend/pkg"

	log "github.com/sirupsen/logrus"
)

// MetricsUnixSocketListenerSetup - this is a deliberately overengineered method of communicating of the
// backup tool with the main service, just to avoid adding the Prometheus push gateway only to push
// two metrics of a short-lived process. The backup tool reports how many sessions it backed up and
// how long the run took, and the main service feeds that into its own registry.
func MetricsUnixSocketListenerSetup(
	ctx context.Context,
	socketAddrDir, socketFileName string,
	metricsManager *metrics.Manager,
) (net.Addr, error) {
	socket := filepath.Join(socketAddrDir, socketFileName)
	listener, err := net.Listen("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("binding to unix socket %s: %w", socket, err)
	}

	if err := os.Chmod(socket, os.ModeSocket|0666); err != nil {
		return nil, err
	}

	go func() {
		go func() {
			<-ctx.Done()
			log.Debugln("backup metrics unix socket listener context done, closing listener")
			_ = listener.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				// Otherwise, continue accepting new connections.
			}

			conn, err := listener.Accept()
			if err != nil {
				log.Errorf("backup metrics unix socket listener conn accept: %s", err)
				return
			}
			log.Debugf("backup metrics unix socket got new conn: %s", conn.RemoteAddr().String())

			if err := conn.SetDeadline(time.Now().Add(5 * time.Minute)); err != nil {
				log.Errorf("failed to set conn timeout: %s", err)
				return
			}

			go func() {
				defer func() { _ = conn.Close() }()

				buf := make([]byte, 1024)
				n, err := conn.Read(buf)
				if err != nil {
					return
				}

				messageReceived := pkg.BytesToString(buf[:n])
				log.Infof("backup metrics unix socket received: %s", messageReceived)

				msgParts := strings.Split(messageReceived, "||")
				if len(msgParts) != 2 {
					log.Errorf("backup metrics conn, invalid message received: %s", messageReceived)
					return
				}

				sendBackupDurationInfo(msgParts[1], metricsManager)
				sendBackupSessionsCount(msgParts[0], metricsManager)

				_, err = conn.Write([]byte("ok"))
				if err != nil {
					log.Errorf("backup metrics conn, send response: %s", err)
				}
			}()
		}
	}()

	return listener.Addr(), nil
}

func sendBackupDurationInfo(durationInfoMsg string, metricsManager *metrics.Manager) {
	durationInfoParts := strings.Split(durationInfoMsg, "::")
	if len(durationInfoParts) != 2 {
		log.Errorf("backup metrics conn, invalid duration info received: %s", durationInfoMsg)
		return
	}

	durationInSec, err := strconv.ParseFloat(durationInfoParts[1], 64)
	if err != nil {
		log.Errorf("backup metrics conn, invalid duration info received: %s", err)
		return
	}

	metricsManager.HistWorkoutsBackupDuration.Observe(durationInSec)
}

func sendBackupSessionsCount(sessionsCountInfoMsg string, metricsManager *metrics.Manager) {
	sessionsCountInfoParts := strings.Split(sessionsCountInfoMsg, "::")
	if len(sessionsCountInfoParts) != 2 {
		log.Errorf("backup metrics conn, invalid sessions info received: %s", sessionsCountInfoMsg)
		return
	}

	sessionsCount, err := strconv.Atoi(sessionsCountInfoParts[1])
	if err != nil {
		log.Errorf("backup metrics conn, invalid sessions counter: %s", err)
		return
	}

	metricsManager.CounterWorkoutsBackups.Add(float64(sessionsCount))
}

// TrySendMetrics reports one finished backup run to the main service over its
// unix socket. Best effort, a failed send never fails the backup itself.
func TrySendMetrics(beginTimestamp time.Time, sessionsCount int, socketAddrDir, socketFileName string) {
	socket := filepath.Join(socketAddrDir, socketFileName)
	conn, err := net.DialTimeout("unix", socket, 10*time.Second)
	if err != nil {
		log.Errorf("backup metrics send, dial %s: %s", socket, err)
		return
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		log.Errorf("backup metrics send, set conn deadline: %s", err)
		return
	}

	duration := time.Since(beginTimestamp).Seconds()
	message := fmt.Sprintf("sessions-count::%d||duration::%f", sessionsCount, duration)
	if _, err := conn.Write([]byte(message)); err != nil {
		log.Errorf("backup metrics send, write: %s", err)
		return
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		log.Errorf("backup metrics send, read response: %s", err)
		return
	}

	if resp := pkg.BytesToString(buf[:n]); resp != "ok" {
		log.Errorf("backup metrics send, unexpected response: %s", resp)
		return
	}

	log.Debugf("backup metrics sent: %s", message)
}
