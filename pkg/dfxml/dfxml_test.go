package dfxml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/volex/pkg/dfxml"
)

func TestWriteHeaderAndFileObjects(t *testing.T) {
	var buf bytes.Buffer
	w := dfxml.NewDFXMLWriter(&buf)

	hdr := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator:   dfxml.Creator{Package: "volex", ExecutionEnvironment: dfxml.GetExecEnv()},
		Source:    dfxml.Source{ImageFilename: "test.img"},
	}
	require.NoError(t, w.WriteHeader(hdr))
	require.NoError(t, w.WriteFileObject(dfxml.FileObject{Filename: "/file.txt", FileSize: 11}))
	require.NoError(t, w.Close())

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))
	require.Contains(t, out, "<dfxml xmloutputversion=\"1.0\">")
	require.Contains(t, out, "<filename>/file.txt</filename>")
	require.Contains(t, out, "<filesize>11</filesize>")
	require.Contains(t, out, "</dfxml>")
}

func TestGetExecEnvPopulatesHostAndArch(t *testing.T) {
	env := dfxml.GetExecEnv()
	require.NotEmpty(t, env.Host)
	require.NotEmpty(t, env.Arch)
	require.NotEmpty(t, env.OS)
}
