// Package protocol defines the messages exchanged with the kiln daemon.
//
// Every message is a single line of JSON: an [Envelope] naming the command
// and carrying a command-specific payload. A client opens a connection,
// writes one request envelope, reads one response envelope and closes the
// connection. Responses use [CmdOK] with a result payload or [CmdError]
// with an [ErrorResult].
//
// Example usage:
//
//	data, err := protocol.Encode(protocol.CmdBuild, &protocol.BuildRequest{
//	    Recipes: []protocol.RecipeFile{{Filename: "clawsec.hcl", Source: src}},
//	})
//	if err != nil {
//	    return err
//	}
//	conn.Write(append(data, '\n'))
package protocol
