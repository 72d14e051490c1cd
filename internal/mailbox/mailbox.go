// Package mailbox connects to the intake IMAP account and exposes the
// small session surface the poller needs: list unseen messages and flag
// them according to the processing outcome.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
)

// Incoming is one unseen message pulled from the inbox. ID is the mailbox
// UID in decimal form and names the message everywhere downstream.
type Incoming struct {
	ID  string
	Raw []byte
}

// Session is a single authenticated connection with the inbox selected.
type Session interface {
	// Unseen returns all messages in the inbox that are not yet marked
	// seen, without setting the seen flag on them.
	Unseen(ctx context.Context) ([]Incoming, error)

	// MarkProcessed flags a message as handled (\Seen).
	MarkProcessed(ctx context.Context, id string) error

	// MarkFollowup flags a message as handled but needing operator
	// attention (\Seen and \Flagged).
	MarkFollowup(ctx context.Context, id string) error

	Close() error
}

// Mailbox opens sessions against the intake account.
type Mailbox interface {
	Open(ctx context.Context) (Session, error)
}

// Config holds IMAP connection configuration.
type Config struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Inbox              string
	Folders            []string
}

// IMAPMailbox implements Mailbox over go-imap v2.
type IMAPMailbox struct {
	cfg Config
	log zerolog.Logger
}

// NewIMAPMailbox creates a mailbox for the given account.
func NewIMAPMailbox(cfg Config, log zerolog.Logger) *IMAPMailbox {
	if cfg.Inbox == "" {
		cfg.Inbox = "INBOX"
	}
	return &IMAPMailbox{cfg: cfg, log: log}
}

func (m *IMAPMailbox) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

func (m *IMAPMailbox) dial() (*imapclient.Client, error) {
	address := m.addr()
	options := &imapclient.Options{}

	if m.cfg.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         m.cfg.Host,
			InsecureSkipVerify: m.cfg.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)

	if m.cfg.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	return client, nil
}

// Open dials the server, authenticates, and selects the inbox. The
// returned session is tied to one connection and must be closed by the
// caller. Cancelling ctx force-closes the connection.
func (m *IMAPMailbox) Open(ctx context.Context) (Session, error) {
	client, err := m.dial()
	if err != nil {
		return nil, err
	}

	if _, err := client.Select(m.cfg.Inbox, nil).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("select %s: %w", m.cfg.Inbox, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	m.log.Debug().
		Str("address", m.addr()).
		Str("user", m.cfg.Username).
		Str("inbox", m.cfg.Inbox).
		Bool("tls", m.cfg.UseTLS).
		Msg("imap session opened")

	return &imapSession{client: client, stop: stop, log: m.log}, nil
}

// EnsureFolders creates the configured companion folders, tolerating
// ones that already exist.
func (m *IMAPMailbox) EnsureFolders(ctx context.Context) error {
	if len(m.cfg.Folders) == 0 {
		return nil
	}

	client, err := m.dial()
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	defer stop()
	defer func() {
		_ = client.Logout().Wait()
		_ = client.Close()
	}()

	for _, folder := range m.cfg.Folders {
		if err := ensureMailbox(client, folder, m.log); err != nil {
			return err
		}
	}
	return nil
}

func ensureMailbox(client *imapclient.Client, name string, log zerolog.Logger) error {
	cmd := client.Create(name, nil)
	if err := cmd.Wait(); err != nil {
		var respErr *imap.Error
		if errors.As(err, &respErr) {
			if respErr.Code == imap.ResponseCodeAlreadyExists {
				log.Debug().Str("mailbox", name).Msg("imap mailbox already exists")
				return nil
			}
		}
		return fmt.Errorf("ensure mailbox %s: %w", name, err)
	}

	log.Info().Str("mailbox", name).Msg("imap mailbox created")
	return nil
}

type imapSession struct {
	client *imapclient.Client
	stop   func() bool
	log    zerolog.Logger
}

// Unseen searches for messages without the seen flag and fetches their
// full bodies with a peek, so reading them does not flip the flag.
func (s *imapSession) Unseen(_ context.Context) ([]Incoming, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	bufs, err := s.client.Fetch(uidSet, fetchOpts).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch unseen bodies: %w", err)
	}

	incoming := make([]Incoming, 0, len(bufs))
	for _, buf := range bufs {
		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			s.log.Warn().
				Uint32("uid", uint32(buf.UID)).
				Msg("fetch returned no body section, skipping message")
			continue
		}
		incoming = append(incoming, Incoming{
			ID:  strconv.FormatUint(uint64(buf.UID), 10),
			Raw: raw,
		})
	}

	return incoming, nil
}

// MarkProcessed adds the seen flag to a message.
func (s *imapSession) MarkProcessed(_ context.Context, id string) error {
	return s.storeFlags(id, []imap.Flag{imap.FlagSeen})
}

// MarkFollowup adds the seen and flagged flags to a message.
func (s *imapSession) MarkFollowup(_ context.Context, id string) error {
	return s.storeFlags(id, []imap.Flag{imap.FlagSeen, imap.FlagFlagged})
}

func (s *imapSession) storeFlags(id string, flags []imap.Flag) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(uid)
	cmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  flags,
	}, nil)

	if err := cmd.Close(); err != nil {
		return fmt.Errorf("store flags on uid %s: %w", id, err)
	}
	return nil
}

// Close logs out and releases the connection.
func (s *imapSession) Close() error {
	s.stop()
	logoutErr := s.client.Logout().Wait()
	_ = s.client.Close()
	return logoutErr
}

// parseUID converts a decimal message ID back to a mailbox UID.
func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q: %w", id, err)
	}
	return imap.UID(n), nil
}
