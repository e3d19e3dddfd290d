package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate(): %v", err)
	}
}

func TestValidateRejectsNoMiningPath(t *testing.T) {
	c := DefaultConfig()
	c.EnablePoW = false
	c.EnableHive = false
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when neither mining path is enabled")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := DefaultConfig()
	c.RPCPort = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for an out-of-range rpc-port")
	}
}

func TestValidateRejectsShortHiveCheckDelay(t *testing.T) {
	c := DefaultConfig()
	c.HiveCheckDelay = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for a sub-second hive-check-delay")
	}
}

func TestParamsAppliesOverrides(t *testing.T) {
	c := DefaultConfig()
	c.Network = "regtest"
	c.BlockMaxWeight = 1_000_000
	c.HiveCheckThreads = 4

	p := c.Params()
	if p.Network != "regtest" {
		t.Errorf("Network = %q, want regtest", p.Network)
	}
	if p.BlockMaxWeight != 1_000_000 {
		t.Errorf("BlockMaxWeight = %d, want 1000000", p.BlockMaxWeight)
	}
	if p.HiveCheckThreads != 4 {
		t.Errorf("HiveCheckThreads = %d, want 4", p.HiveCheckThreads)
	}
}

func TestRPCURL(t *testing.T) {
	c := DefaultConfig()
	c.RPCHost = "10.0.0.1"
	c.RPCPort = 1234
	if got, want := c.RPCURL(), "http://10.0.0.1:1234"; got != want {
		t.Errorf("RPCURL() = %q, want %q", got, want)
	}
}
