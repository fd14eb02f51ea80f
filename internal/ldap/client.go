package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/devplatform/ldap-console/internal/models"
	ldap "github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
)

// Conn is the part of an LDAP connection the console relies on
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Close()
}

// DialFunc opens a raw connection to an ldap:// or ldaps:// URL
type DialFunc func(ctx context.Context, url string) (Conn, error)

// Options holds connection and search limits
type Options struct {
	ConnTimeout   time.Duration
	SearchTimeout time.Duration
	PagingSize    uint32
}

// Client opens bound sessions against cluster endpoints
type Client struct {
	dial   DialFunc
	opts   Options
	logger *logrus.Logger
}

// NewClient creates a client that dials real servers
func NewClient(opts Options, logger *logrus.Logger) *Client {
	c := &Client{opts: opts, logger: logger}
	c.dial = c.dialURL
	return c
}

// NewClientWithDialer creates a client over a custom dialer
func NewClientWithDialer(dial DialFunc, opts Options, logger *logrus.Logger) *Client {
	return &Client{dial: dial, opts: opts, logger: logger}
}

// dialURL is the default DialFunc
func (c *Client) dialURL(_ context.Context, url string) (Conn, error) {
	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: c.opts.ConnTimeout})}
	if strings.HasPrefix(url, "ldaps://") {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}

	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, err
	}
	if c.opts.SearchTimeout > 0 {
		conn.SetTimeout(c.opts.SearchTimeout)
	}
	return &liveConn{conn: conn}, nil
}

// liveConn adapts *ldap.Conn to Conn
type liveConn struct {
	conn *ldap.Conn
}

func (l *liveConn) Bind(username, password string) error {
	return l.conn.Bind(username, password)
}

func (l *liveConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return l.conn.Search(req)
}

func (l *liveConn) SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error) {
	return l.conn.SearchWithPaging(req, pagingSize)
}

func (l *liveConn) Close() {
	l.conn.Close()
}

// URL builds the connection URL for a node
func URL(node models.Node, useTLS bool) string {
	scheme := "ldap"
	if useTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, node.Host, node.Port)
}

// Connect binds to the first reachable endpoint of the cluster. Endpoints are tried in
// order; invalid credentials stop the walk because every node shares the same DIT.
func (c *Client) Connect(ctx context.Context, cluster models.Cluster, password string) (*Session, error) {
	endpoints := cluster.Endpoints()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("cluster %s has no endpoints", cluster.Name)
	}

	var lastErr error
	for _, node := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := c.ConnectNode(ctx, cluster, node, password)
		if err == nil {
			return s, nil
		}
		lastErr = err

		if IsInvalidCredentials(err) {
			break
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"cluster": cluster.Name,
			"node":    node.Host,
		}).Warn("LDAP endpoint unavailable, trying next")
	}

	return nil, lastErr
}

// IsInvalidCredentials reports whether a bind failed because the directory rejected the password
func IsInvalidCredentials(err error) bool {
	var lerr *ldap.Error
	return errors.As(err, &lerr) && lerr.ResultCode == ldap.LDAPResultInvalidCredentials
}

// ConnectNode binds to one specific node of the cluster
func (c *Client) ConnectNode(ctx context.Context, cluster models.Cluster, node models.Node, password string) (*Session, error) {
	url := URL(node, cluster.UseTLS)
	c.logger.WithField("url", url).Debug("Creating new LDAP connection")

	start := time.Now()
	conn, err := c.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial LDAP %s: %w", url, err)
	}

	if err := conn.Bind(cluster.BindDN, password); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to bind: %w", err)
	}

	return &Session{
		conn:     conn,
		node:     node,
		baseDN:   cluster.BaseDN,
		bindTime: time.Since(start),
		opts:     c.opts,
		logger:   c.logger,
	}, nil
}

// Session is a bound connection to one node
type Session struct {
	conn     Conn
	node     models.Node
	baseDN   string
	bindTime time.Duration
	opts     Options
	logger   *logrus.Logger
}

// Node is the endpoint this session is bound to
func (s *Session) Node() models.Node {
	return s.node
}

// BindTime is how long dialing and binding took
func (s *Session) BindTime() time.Duration {
	return s.bindTime
}

// BaseDN returns the configured base DN, discovering it from the rootDSE when empty
func (s *Session) BaseDN() string {
	if s.baseDN == "" {
		s.baseDN = s.DiscoverBaseDN()
	}
	return s.baseDN
}

// Close releases the connection
func (s *Session) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
