//go:build unix

package sshsrv

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/spawnkit/spawnkit/sshsrv/sshtypes"
	gossh "golang.org/x/crypto/ssh"
)

func startTestServer(t *testing.T) net.Listener {
	t.Helper()

	srv := New(t.TempDir()+"/hostkey", func() bool { return false })
	l, err := srv.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func dialTestServer(t *testing.T, l net.Listener) *gossh.Client {
	t.Helper()

	client, err := gossh.Dial("tcp", l.Addr().String(), &gossh.ClientConfig{
		User:            "test",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func rawMeta(t *testing.T, meta sshtypes.SessionMeta) string {
	t.Helper()

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func rawCommand(t *testing.T, args ...string) string {
	t.Helper()

	data, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRawCommandOutput(t *testing.T) {
	t.Parallel()
	l := startTestServer(t)
	client := dialTestServer(t, l)

	sess, err := client.NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	err = sess.Setenv(sshtypes.KeyMeta, rawMeta(t, sshtypes.SessionMeta{
		RawCommand: true,
	}))
	if err != nil {
		t.Fatal(err)
	}

	out, err := sess.Output(rawCommand(t, "echo", "hello from sshsrv"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(out)) != "hello from sshsrv" {
		t.Errorf("output = %q", out)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	l := startTestServer(t)
	client := dialTestServer(t, l)

	sess, err := client.NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	err = sess.Setenv(sshtypes.KeyMeta, rawMeta(t, sshtypes.SessionMeta{
		RawCommand: true,
	}))
	if err != nil {
		t.Fatal(err)
	}

	err = sess.Run(rawCommand(t, "sh", "-c", "exit 5"))
	exitErr, ok := err.(*gossh.ExitError)
	if !ok {
		t.Fatalf("err = %v, want ExitError", err)
	}
	if exitErr.ExitStatus() != 5 {
		t.Errorf("exit status = %d, want 5", exitErr.ExitStatus())
	}
}

func TestEnvAndPwd(t *testing.T) {
	t.Parallel()
	l := startTestServer(t)
	client := dialTestServer(t, l)

	dir := t.TempDir()
	sess, err := client.NewSession()
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	err = sess.Setenv(sshtypes.KeyMeta, rawMeta(t, sshtypes.SessionMeta{
		RawCommand: true,
		Pwd:        dir,
	}))
	if err != nil {
		t.Fatal(err)
	}
	err = sess.Setenv("SK_SSH_TEST", "xyz789")
	if err != nil {
		t.Fatal(err)
	}

	out, err := sess.Output(rawCommand(t, "sh", "-c", `printf '%s %s' "$SK_SSH_TEST" "$PWD"`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "xyz789") {
		t.Errorf("env not forwarded: %q", out)
	}
	if !strings.Contains(string(out), dir) {
		t.Errorf("pwd not applied: %q", out)
	}
}

func TestHostKeyPersists(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/hostkey"
	first, err := loadHostKey(path)
	if err != nil {
		t.Fatal(err)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0600 {
		t.Errorf("host key mode = %v, want 0600", st.Mode().Perm())
	}

	second, err := loadHostKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("host key changed between loads")
	}
}
