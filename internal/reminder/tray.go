package reminder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

const (
	trayAppIdentifier      = "com.julianstephens.stride"
	trayLockfileName       = "stride-notifier.lock"
	notificationDurationMs = 5000
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// TrayNotifier delivers reminders to the companion tray application over
// its local webhook. The tray app writes a lockfile ("port|pid|secret")
// while running; the pid is verified to still belong to a stride-tray
// process before anything is sent.
type TrayNotifier struct{}

func NewTrayNotifier() *TrayNotifier {
	return &TrayNotifier{}
}

type webhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func (n *TrayNotifier) Notify(text string) error {
	configDir, err := trayConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(configDir, trayLockfileName))
	if err != nil {
		return err
	}

	return sendNotification(port, secret, webhookPayload{
		Text:       text,
		DurationMs: notificationDurationMs,
	})
}

func trayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(configDir, trayAppIdentifier), nil
}

func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New("stride-tray is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := parts[0]
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("stride-tray process not running")
	}
	if !strings.HasPrefix(process.Executable(), "stride-tray") {
		return "", "", fmt.Errorf("process with PID %d is not stride-tray (is %s)", pid, process.Executable())
	}

	return port, secret, nil
}

func sendNotification(port string, secret string, payload webhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Stride-Secret", secret)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
