package utils

import (
	"time"
)

const HTTPReqTimeout = 1 * time.Minute

// Settings is the process wide settings hub. It is filled once at startup from
// the CLI/viper layer and read-only after that.
var Settings = &Hub{timeout: HTTPReqTimeout}

type Hub struct {
	label       string        // our agent label told to peers in handshakes
	hostAddr    string        // endpoint base address seen from the internet
	webhookURL  string        // where state change notifications are delivered
	timeout     time.Duration // timeout for outbound http requests
	versionInfo string        // version number etc. in free format

	requireInvitation bool // reject connection requests without an invitation

	storagePath string // bolt record storage file path
	backupName  string // record storage backup file name
	backupTime  string // daily backup time in HH:MM
}

func (h *Hub) Label() string {
	return h.label
}

func (h *Hub) SetLabel(label string) {
	h.label = label
}

func (h *Hub) HostAddr() string {
	return h.hostAddr
}

func (h *Hub) SetHostAddr(addr string) {
	h.hostAddr = addr
}

func (h *Hub) WebhookURL() string {
	return h.webhookURL
}

func (h *Hub) SetWebhookURL(url string) {
	h.webhookURL = url
}

func (h *Hub) Timeout() time.Duration {
	return h.timeout
}

func (h *Hub) SetTimeout(to time.Duration) {
	h.timeout = to
}

func (h *Hub) VersionInfo() string {
	return h.versionInfo
}

func (h *Hub) SetVersionInfo(info string) {
	h.versionInfo = info
}

func (h *Hub) RequireInvitation() bool {
	return h.requireInvitation
}

func (h *Hub) SetRequireInvitation(r bool) {
	h.requireInvitation = r
}

func (h *Hub) StoragePath() string {
	return h.storagePath
}

func (h *Hub) SetStoragePath(path string) {
	h.storagePath = path
}

func (h *Hub) BackupName() string {
	return h.backupName
}

func (h *Hub) SetBackupName(name string) {
	h.backupName = name
}

func (h *Hub) BackupTime() string {
	return h.backupTime
}

func (h *Hub) SetBackupTime(t string) {
	h.backupTime = t
}
