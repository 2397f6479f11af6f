package thermal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableRejectsWrongBucketCount(t *testing.T) {
	for _, v := range []string{"", "a,:b,", "a,:b,:c,:d,:e,:f,:g,", "no-separators"} {
		_, ok := ParseTable(v)
		assert.False(t, ok, v)
	}
}

func TestParseTableAcceptsUnlabelledBuckets(t *testing.T) {
	tbl, ok := ParseTable("com.a,:com.b,com.c,::::com.d,")
	require.True(t, ok)
	assert.Equal(t, Benchmark, tbl.Lookup("com.a"))
	assert.Equal(t, Browser, tbl.Lookup("com.c"))
	assert.Equal(t, Streaming, tbl.Lookup("com.d"))
	assert.Equal(t, Default, tbl.Lookup("com.e"))
}

func TestTableRoundTrip(t *testing.T) {
	var tbl Table
	tbl.Assign("com.game", Gaming)
	tbl.Assign("com.cam", Camera)

	encoded := tbl.String()
	assert.Equal(t,
		"thermal.benchmark=:thermal.browser=:thermal.camera=com.cam,:thermal.dialer=:thermal.gaming=com.game,:thermal.streaming=",
		encoded)

	decoded, ok := ParseTable(encoded)
	require.True(t, ok)
	assert.Equal(t, Gaming, decoded.Lookup("com.game"))
	assert.Equal(t, Camera, decoded.Lookup("com.cam"))
}

func TestTableLookupFirstMatchWins(t *testing.T) {
	tbl, ok := ParseTable("com.x,:com.x,::::")
	require.True(t, ok)
	assert.Equal(t, Benchmark, tbl.Lookup("com.x"))
	assert.Empty(t, tbl.Packages(Browser))
}

func TestTableAssignMovesBetweenBuckets(t *testing.T) {
	var tbl Table
	tbl.Assign("com.a", Gaming)
	tbl.Assign("com.a", Browser)
	assert.Equal(t, Browser, tbl.Lookup("com.a"))
	assert.Empty(t, tbl.Packages(Gaming))

	tbl.Assign("com.a", Default)
	assert.Equal(t, Default, tbl.Lookup("com.a"))
	assert.Empty(t, tbl.Packages(Browser))
}

func TestTableSuffixPackagesNotCorrupted(t *testing.T) {
	var tbl Table
	tbl.Assign("a.b", Gaming)
	tbl.Assign("xa.b", Gaming)
	tbl.Assign("a.bc", Gaming)

	tbl.Assign("a.b", Default)

	assert.Equal(t, []string{"xa.b", "a.bc"}, tbl.Packages(Gaming))
	assert.Equal(t, Gaming, tbl.Lookup("xa.b"))
	assert.Equal(t, Gaming, tbl.Lookup("a.bc"))
	assert.Equal(t, Default, tbl.Lookup("a.b"))
}

func TestValidatePackageName(t *testing.T) {
	require.NoError(t, ValidatePackageName("com.example.app"))
	for _, bad := range []string{"", "  ", "a:b", "a,b", "a=b", "a b"} {
		assert.Error(t, ValidatePackageName(bad), bad)
	}
}
