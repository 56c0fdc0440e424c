package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostrelay/internal/capability"
)

func TestCatalogFor_KnownPlatforms(t *testing.T) {
	for _, goos := range []string{"linux", "windows", "darwin"} {
		t.Run(goos, func(t *testing.T) {
			cat := CatalogFor(goos)
			assert.Equal(t, goos, cat.GOOS)
			for _, name := range []capability.Name{capability.PowerOff, capability.Reboot, capability.Lock, capability.Screenshot, capability.Speech, capability.Camera} {
				methods := cat.Methods[name]
				require.NotEmpty(t, methods, "%s should offer %s", goos, name)
				for _, m := range methods {
					assert.NotEmpty(t, m.Name)
					assert.NotEmpty(t, m.Steps)
					assert.Positive(t, m.Timeout, "%s/%s needs a timeout", name, m.Name)
				}
			}
		})
	}
}

func TestCatalogFor_UnknownPlatformIsEmpty(t *testing.T) {
	cat := CatalogFor("plan9")
	assert.Empty(t, cat.Methods)
}

func TestCatalog_TextNeverReachesAShell(t *testing.T) {
	// Free text must only ever be a discrete argument or stdin, never part of a script.
	for _, goos := range []string{"linux", "windows", "darwin"} {
		for _, m := range CatalogFor(goos).Methods[capability.Speech] {
			for _, s := range m.Steps {
				for _, a := range s.Args {
					if strings.Contains(a, "{text}") {
						assert.Equal(t, "{text}", a, "%s/%s embeds text inside an argument", goos, m.Name)
					}
				}
			}
		}
	}
}

func TestLinuxCatalog_PreferenceOrder(t *testing.T) {
	cat := CatalogFor("linux")
	power := cat.Methods[capability.PowerOff]
	require.Len(t, power, 3)
	assert.Equal(t, "loginctl poweroff", power[0].Name)
	assert.Equal(t, "systemctl poweroff", power[1].Name)

	shots := cat.Methods[capability.Screenshot]
	assert.Equal(t, "grimblast", shots[0].Name)

	for _, m := range cat.Methods[capability.Camera] {
		assert.True(t, m.PerDevice, "linux camera methods iterate devices")
	}
}
