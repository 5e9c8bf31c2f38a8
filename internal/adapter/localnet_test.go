package adapter

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPrivateIPv4(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"192.168.1.1", true},
		{"192.169.1.1", false},
		{"8.8.8.8", false},
		{"fd00::1", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, isPrivateIPv4(net.ParseIP(tt.ip)))
		})
	}
}

func TestIsVirtualInterface(t *testing.T) {
	assert.True(t, isVirtualInterface("veth1a2b"))
	assert.True(t, isVirtualInterface("docker0"))
	assert.True(t, isVirtualInterface("br-5f3c"))
	assert.False(t, isVirtualInterface("eth0"))
	assert.False(t, isVirtualInterface("wlan0"))
}

func TestSubnetOf(t *testing.T) {
	ip, ipnet, err := net.ParseCIDR("192.168.10.42/24")
	require.NoError(t, err)
	ipnet.IP = ip
	assert.Equal(t, "192.168.10.0/24", subnetOf(ipnet))
}

func TestResolveTargets(t *testing.T) {
	local := func() ([]string, error) { return []string{"10.0.0.0/24", "192.168.1.0/24"}, nil }

	got, err := resolveTargets([]string{"172.16.0.5", "auto"}, local)
	require.NoError(t, err)
	assert.Equal(t, []string{"172.16.0.5", "10.0.0.0/24", "192.168.1.0/24"}, got)

	got, err = resolveTargets([]string{"10.9.0.0/16"}, func() ([]string, error) {
		t.Fatal("local subnets looked up without auto target")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.9.0.0/16"}, got)

	_, err = resolveTargets([]string{"AUTO"}, func() ([]string, error) { return nil, nil })
	assert.Error(t, err)

	_, err = resolveTargets([]string{"auto"}, func() ([]string, error) { return nil, errors.New("netlink") })
	assert.EqualError(t, err, "netlink")
}
