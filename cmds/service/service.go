// Package service implements the command which runs the agent service: it
// builds the wallet, the record store, the protocol engines and the
// transports, and keeps them serving until the process is signaled down.
package service

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/bus"
	"github.com/catalyst-network/catalyst-agent/agent/cred"
	"github.com/catalyst-network/catalyst-agent/agent/pairwise"
	"github.com/catalyst-network/catalyst-agent/agent/prot"
	"github.com/catalyst-network/catalyst-agent/agent/ssi"
	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/catalyst-network/catalyst-agent/agent/storage/bolt"
	"github.com/catalyst-network/catalyst-agent/agent/storage/mem"
	"github.com/catalyst-network/catalyst-agent/agent/trans"
	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/cmds"
	"github.com/catalyst-network/catalyst-agent/std/didexchange"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Cmd collects the startup arguments of the agent service.
type Cmd struct {
	Label      string
	HostAddr   string
	HTTPAddr   string
	WSAddr     string
	WebhookURL string

	StoragePath string
	BackupName  string
	BackupTime  string

	RouterVerKey      string
	RequireInvitation bool

	// PrintInvitation emits a fresh invitation to stdout after startup so a
	// peer can be pointed at a new service without a controller round trip.
	PrintInvitation bool

	// InvitationFile makes the service accept the invitation in the given
	// JSON file right after startup.
	InvitationFile string

	VersionInfo string

	Timeout time.Duration
}

var cron = gocron.NewScheduler(time.Now().Location())

func (c *Cmd) Validate() error {
	if c.HostAddr == "" {
		return errors.New("host address cannot be empty")
	}
	if c.HTTPAddr == "" && c.WSAddr == "" {
		return errors.New("at least one transport listen address is needed")
	}
	if c.BackupTime != "" {
		if err := cmds.ValidateTime(c.BackupTime); err != nil {
			return err
		}
	}
	if c.BackupName != "" && c.StoragePath == "" {
		return errors.New("storage backup needs a persistent storage file")
	}
	return nil
}

// Exec builds and runs the whole service. It returns when the process gets
// SIGINT or SIGTERM.
func (c *Cmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "agent service")

	c.setRuntimeSettings()

	wallet := ssi.NewEnclave()
	store := try.To1(c.openStorage())

	connections := &pairwise.Manager{
		Wallet: wallet,
		Store:  store,
		Bus:    bus.WantAll,
	}
	credentials := &cred.Manager{Store: store, Bus: bus.WantAll}
	if c.WebhookURL != "" {
		bus.WantAll.AddListener(bus.NewWebhookListener(c.WebhookURL))
	}

	processor := prot.NewProcessor(connections, credentials)
	processor.RouterVerKey = c.RouterVerKey

	transports := try.To1(c.startTransports(processor))
	defer func() {
		for _, t := range transports {
			t.Stop()
		}
	}()

	c.startBackupTasks(store)
	defer cron.Stop()

	if c.PrintInvitation {
		inv := try.To1(connections.CreateInvitation())
		cmds.Fprintln(w, dto.ToJSON(inv))
	}
	if c.InvitationFile != "" {
		try.To(c.connect(connections, processor))
	}

	glog.V(1).Infoln("agent up as", c.Label, "on", c.HostAddr)
	waitForSignal()
	glog.V(1).Infoln("shutting down")
	return nil
}

func (c *Cmd) setRuntimeSettings() {
	utils.Settings.SetLabel(c.Label)
	utils.Settings.SetHostAddr(c.HostAddr)
	utils.Settings.SetWebhookURL(c.WebhookURL)
	utils.Settings.SetRequireInvitation(c.RequireInvitation)
	utils.Settings.SetStoragePath(c.StoragePath)
	utils.Settings.SetBackupName(c.BackupName)
	utils.Settings.SetBackupTime(c.BackupTime)
	utils.Settings.SetVersionInfo(c.VersionInfo)
	if c.Timeout != 0 {
		utils.Settings.SetTimeout(c.Timeout)
	}
}

func (c *Cmd) openStorage() (s api.Storage, err error) {
	defer err2.Handle(&err, "open storage")

	if c.StoragePath == "" {
		glog.V(1).Infoln("using in-memory record storage")
		return mem.New(), nil
	}
	return bolt.New(c.StoragePath)
}

func (c *Cmd) startTransports(p *prot.Processor) (ts []trans.Transport, err error) {
	defer err2.Handle(&err, "start transports")

	kinds := map[string]string{
		trans.KindHTTP: c.HTTPAddr,
		trans.KindWS:   c.WSAddr,
	}
	for kind, addr := range kinds {
		if addr == "" {
			continue
		}
		t := try.To1(trans.New(kind, addr, p.Process))
		if err := t.Start(); err != nil {
			// one transport failing to bind must not take the others down
			glog.Errorln("transport start:", err)
			continue
		}
		ts = append(ts, t)
	}
	if len(ts) == 0 {
		return nil, errors.New("no transport could start")
	}
	return ts, nil
}

func (c *Cmd) startBackupTasks(store api.Storage) {
	backupper, ok := store.(bolt.Backupper)
	if !ok || c.BackupName == "" {
		return
	}
	glog.V(1).Infoln("storage backup time:", c.BackupTime)
	_, err := cron.Every(1).Day().At(c.BackupTime).Do(func() {
		if err := backupper.Backup(c.BackupName); err != nil {
			glog.Errorln("storage backup:", err)
		}
	})
	if err != nil {
		glog.Warningln("storage backup start error:", err)
	}
	cron.StartAsync()
}

// connect reads the invitation file and starts the handshake to its issuer.
func (c *Cmd) connect(cm *pairwise.Manager, p *prot.Processor) (err error) {
	defer err2.Handle(&err, "connect with %s", c.InvitationFile)

	data := try.To1(os.ReadFile(c.InvitationFile))
	inv := &didexchange.Invitation{}
	dto.FromJSON(data, inv)

	try.To(cm.ReceiveInvitation(inv))
	msg, target := try.To2(cm.AcceptInvitation(inv, c.RouterVerKey))
	return p.SendTo(msg, target)
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}
