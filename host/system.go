package host

import (
	"bufio"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions, honoring the
// GOHOSTOS/GOOS and GOHOSTARCH/GOARCH overrides.
func getPlatform() target {
	return target{
		OS:   lookupFirst(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: lookupFirst(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func lookupFirst(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}

	return fallback
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name := getUsername()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}
