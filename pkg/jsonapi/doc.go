// Package jsonapi is a client for the JSONAPI server plugin's HTTP interface.
//
// Every request is a GET carrying the method name, its JSON-encoded arguments
// and a key: the SHA-256 of username, method, password and salt. A Client
// derives keys, builds URLs and decodes responses into generic values.
//
//	c, err := jsonapi.New(jsonapi.Config{
//	    Host:     "localhost",
//	    Port:     jsonapi.DefaultPort,
//	    Username: "admin",
//	    Password: "changeme",
//	    Salt:     "salt",
//	})
//	if err != nil {
//	    return err
//	}
//	players, err := c.Call(ctx, "getPlayers")
//
// Batches go through CallMultiple; the key for a batch is derived from its
// first method.
package jsonapi
