package launcher

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/rony4d/go-opera-names/utils/logger"
)

const scenarioDoc = `
genesis:
  network: fake
  owner: "0x00000000000000000000000000000000000000a0"
  team: "0x00000000000000000000000000000000000000a1"
  registrar: "0x00000000000000000000000000000000000000b0"
  prices:
    3: "500"
  whitelist:
    - minLength: 3
      free: 1
      allowed: 1
      addresses: ["0x00000000000000000000000000000000000a11ce"]
balances:
  "0x00000000000000000000000000000000000a11ce": "1000"
  "0x0000000000000000000000000000000000000b0b": "1000"
steps:
  - op: register
    from: "0x0000000000000000000000000000000000000b0b"
    name: hello
    value: "100"
    expect: not_eligible
  - op: add-epoch
    from: "0x00000000000000000000000000000000000000a0"
    activation: "+0s"
    minLength: 3
    maxLength: 32
  - op: register
    from: "0x00000000000000000000000000000000000a11ce"
    name: abc
  - op: register
    from: "0x0000000000000000000000000000000000000b0b"
    name: hello
    value: "100"
    expect: not_eligible
  - advance: 1h
  - op: register
    from: "0x0000000000000000000000000000000000000b0b"
    name: hello
    value: "50"
    expect: insufficient_payment
  - op: register
    from: "0x0000000000000000000000000000000000000b0b"
    name: hello
    value: "150"
  - op: renew
    from: "0x0000000000000000000000000000000000000b0b"
    name: hello
    years: 2
    value: "200"
  - op: grant
    from: "0x0000000000000000000000000000000000000b0b"
    addresses: ["0x0000000000000000000000000000000000000b0b"]
    free: 5
    expect: unauthorized
`

func parseScenario(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc := new(Scenario)
	require.NoError(t, yaml.UnmarshalStrict([]byte(doc), sc))
	return sc
}

func TestRunScenario(t *testing.T) {
	var out bytes.Buffer
	err := RunScenario(parseScenario(t, scenarioDoc), &out, logger.Discard())
	require.NoError(t, err, out.String())

	s := out.String()
	assert.Contains(t, s, "#2 register abc: cost=0")
	assert.Contains(t, s, "#6 register hello: cost=100")
	assert.Contains(t, s, "#7 renew hello: cost=200")
	// team collects 100 + 200, bob paid 300 after the 50 wei refund
	team := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress(bobHex)
	assert.Contains(t, s, team.Hex()+" 300")
	assert.Contains(t, s, bob.Hex()+" 700")
	assert.Contains(t, s, "names_registrations_total 2")
	assert.Contains(t, s, "names_renewals_total 1")
	assert.Contains(t, s, `names_rejections_total{op="register",reason="not_eligible"} 2`)
}

func TestRunScenarioMismatch(t *testing.T) {
	sc := parseScenario(t, scenarioDoc)
	sc.Steps = sc.Steps[:1]
	sc.Steps[0].Expect = ""

	var out bytes.Buffer
	err := RunScenario(sc, &out, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, out.String(), "MISMATCH (want ok, got not_eligible)")
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "scenario.yaml", scenarioDoc)

	out, err := run(t, "--datadir", dir, "--log.verbosity", "0", "simulate", "--script", script)
	require.NoError(t, err)
	assert.Contains(t, out, "balances:")
	assert.Contains(t, out, "metrics:")

	_, err = run(t, "--datadir", dir, "simulate")
	assert.Error(t, err)
}
