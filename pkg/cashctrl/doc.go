// Package cashctrl is a lightweight client for the CashCtrl REST API.
//
// Beyond generic authenticated GET, POST, PUT and DELETE requests, it can
// list and synchronize category trees and mirror a local directory onto the
// server-side file store.
//
// # Usage
//
//	client, err := cashctrl.New(&cashctrl.Config{
//		Organisation: "myorg",
//		APIKey:       os.Getenv("CC_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var persons struct {
//		Data []map[string]any `json:"data"`
//	}
//	err = client.Get(ctx, "person/list.json", nil, &persons)
//
// The remote system is the single source of truth: synchronization is
// best-effort and bounded by what the remote API enforces.
package cashctrl
