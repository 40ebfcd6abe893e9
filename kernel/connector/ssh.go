package connector

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// SshConfig configures the ssh connector type.
type SshConfig struct {
	User       string `yaml:"user"`
	Port       int    `yaml:"port"`
	KeyFile    string `yaml:"key_file"`
	AgentBin   string `yaml:"agent_bin"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type sshConnector struct {
	cfg SshConfig
}

// NewSshConnector builds the reference connector: it dials the instance over
// ssh, copies the agent binary into place with sftp, and starts it as a
// background process.
func NewSshConnector(cfg SshConfig) Connector {
	if cfg.User == "" {
		cfg.User = "ec2-user"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = 30
	}
	return &sshConnector{cfg: cfg}
}

func (c *sshConnector) Connect(address string, progress Progress) (Launcher, error) {
	if address == "" {
		return nil, errors.New("no address to connect to")
	}
	progress.Printf("connecting ssh launcher to [%s]", address)
	return &sshLauncher{cfg: c.cfg, address: address}, nil
}

type sshLauncher struct {
	cfg     SshConfig
	address string
}

func (l *sshLauncher) Describe() string {
	return fmt.Sprintf("ssh launcher for [%s@%s:%d]", l.cfg.User, l.address, l.cfg.Port)
}

func (l *sshLauncher) IsLaunchSupported() bool {
	conn, err := net.DialTimeout("tcp", l.endpoint(), time.Duration(l.cfg.TimeoutSec)*time.Second)
	if err != nil {
		logrus.Debugf("ssh endpoint [%s] not reachable: %v", l.endpoint(), err)
		return false
	}
	_ = conn.Close()
	return true
}

func (l *sshLauncher) Launch(ctx context.Context, target Target, progress Progress) error {
	client, err := l.dial(ctx)
	if err != nil {
		return errors.Wrapf(err, "unable to dial [%s]", l.endpoint())
	}
	defer func() { _ = client.Close() }()

	remoteBin := target.RemoteDir + "/bin/agent"
	if l.cfg.AgentBin != "" {
		progress.Printf("copying agent binary to [%s]", remoteBin)
		if err := l.copyFile(client, l.cfg.AgentBin, remoteBin); err != nil {
			return errors.Wrap(err, "unable to copy agent binary")
		}
	}

	progress.Printf("starting agent on [%s]", l.address)
	startCmd := fmt.Sprintf(
		"mkdir -p %s/logs && nohup %s --node %s > %s/logs/agent.log 2>&1 &",
		target.RemoteDir, remoteBin, target.NodeId, target.RemoteDir,
	)
	if err := l.run(client, startCmd); err != nil {
		return errors.Wrap(err, "unable to start agent")
	}
	return nil
}

func (l *sshLauncher) AfterDisconnect(target Target, progress Progress) error {
	client, err := l.dial(context.Background())
	if err != nil {
		// the instance may already be gone; nothing left to stop
		logrus.Debugf("ssh dial for disconnect cleanup failed: %v", err)
		return nil
	}
	defer func() { _ = client.Close() }()

	progress.Printf("stopping agent on [%s]", l.address)
	return l.run(client, "pkill -TERM -f 'bin/agent' || true")
}

func (l *sshLauncher) endpoint() string {
	return net.JoinHostPort(l.address, strconv.Itoa(l.cfg.Port))
}

func (l *sshLauncher) dial(ctx context.Context) (*ssh.Client, error) {
	keyData, err := os.ReadFile(l.cfg.KeyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read key file [%s]", l.cfg.KeyFile)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse private key")
	}

	clientConfig := &ssh.ClientConfig{
		User:            l.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         time.Duration(l.cfg.TimeoutSec) * time.Second,
	}

	dialer := net.Dialer{Timeout: clientConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", l.endpoint())
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, l.endpoint(), clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (l *sshLauncher) run(client *ssh.Client, cmd string) error {
	session, err := client.NewSession()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if output, err := session.CombinedOutput(cmd); err != nil {
		return errors.Wrapf(err, "remote command failed: %s", string(output))
	}
	return nil
}

func (l *sshLauncher) copyFile(client *ssh.Client, localPath, remotePath string) error {
	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = local.Close() }()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return err
	}
	defer func() { _ = sftpClient.Close() }()

	if err := sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
		return err
	}
	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return err
	}
	defer func() { _ = remote.Close() }()

	if _, err := io.Copy(remote, local); err != nil {
		return err
	}
	return sftpClient.Chmod(remotePath, 0755)
}

func init() {
	Register("ssh", func(settings Settings) (Connector, error) {
		return NewSshConnector(SshConfig{
			User:       settings.String("user", ""),
			Port:       settings.Int("port", 0),
			KeyFile:    settings.String("key_file", ""),
			AgentBin:   settings.String("agent_bin", ""),
			TimeoutSec: settings.Int("timeout_seconds", 0),
		}), nil
	})
}
