// Command acdp-keygen manages the gateway's issuer key material: the
// Ed25519 credential-signing key and the CMZ14 MACGGM server key.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/acdp/acdp-core/pkg/group"
	"github.com/acdp/acdp-core/pkg/mac"
)

// command represents a subcommand.
type command struct {
	Name        string
	Description string
	Execute     func(args []string) error
}

func main() {
	commands := []command{
		{Name: "keygen", Description: "Generate a new issuer signing key and MAC key", Execute: cmdKeyGen},
		{Name: "rotate", Description: "Generate a replacement MAC key, keeping the signing key", Execute: cmdRotate},
		{Name: "export-public", Description: "Print the public material from a key file", Execute: cmdExportPublic},
	}

	if len(os.Args) < 2 {
		showHelp(commands)
		os.Exit(1)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.Name == name {
			if err := c.Execute(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	showHelp(commands)
	os.Exit(1)
}

func showHelp(commands []command) {
	fmt.Println("acdp-keygen - issuer key lifecycle")
	fmt.Println("\nUsage:")
	fmt.Println("  acdp-keygen <command> [options]")
	fmt.Println("\nAvailable Commands:")
	for _, c := range commands {
		fmt.Printf("  %-14s %s\n", c.Name, c.Description)
	}
}

// keyFile is the on-disk encoding of an issuer's key material. The MAC
// secret scalars are hex-encoded individually rather than as one blob, so
// rotate can replace them without touching SigningKey.
type keyFile struct {
	SigningKey  string `json:"signing_key"`
	PublicKey   string `json:"public_key"`
	MACX0Blind  string `json:"mac_x0_blind"`
	MACX0       string `json:"mac_x0"`
	MACX1       string `json:"mac_x1"`
	MACX2       string `json:"mac_x2"`
	MACPublicX0 string `json:"mac_public_x0"`
	MACPublicX1 string `json:"mac_public_x1"`
	MACPublicX2 string `json:"mac_public_x2"`
}

func marshalScalar(s group.Scalar) (string, error) {
	b, err := s.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func marshalPoint(p group.Point) (string, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func macKeyToFile(kp *mac.KeyPair, f *keyFile) error {
	var err error
	if f.MACX0Blind, err = marshalScalar(kp.Secret.X0Blind); err != nil {
		return err
	}
	if f.MACX0, err = marshalScalar(kp.Secret.X0); err != nil {
		return err
	}
	if f.MACX1, err = marshalScalar(kp.Secret.X1); err != nil {
		return err
	}
	if f.MACX2, err = marshalScalar(kp.Secret.X2); err != nil {
		return err
	}
	if f.MACPublicX0, err = marshalPoint(kp.Public.X0); err != nil {
		return err
	}
	if f.MACPublicX1, err = marshalPoint(kp.Public.X1); err != nil {
		return err
	}
	if f.MACPublicX2, err = marshalPoint(kp.Public.X2); err != nil {
		return err
	}
	return nil
}

func writeKeyFile(path string, f keyFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func readKeyFile(path string) (keyFile, error) {
	var f keyFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read key file: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse key file: %w", err)
	}
	return f, nil
}

func cmdKeyGen(args []string) error {
	output := "issuer-key.json"
	if len(args) > 0 {
		output = args[0]
	}

	_, signingKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}
	macKey, err := mac.GenerateKeyPair(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate MAC key: %w", err)
	}

	f := keyFile{
		SigningKey: hex.EncodeToString(signingKey),
		PublicKey:  hex.EncodeToString(signingKey.Public().(ed25519.PublicKey)),
	}
	if err := macKeyToFile(macKey, &f); err != nil {
		return fmt.Errorf("encode MAC key: %w", err)
	}
	if err := writeKeyFile(output, f); err != nil {
		return err
	}

	fmt.Printf("Issuer key pair generated and saved to %s\n", output)
	return nil
}

func cmdRotate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: acdp-keygen rotate <key-file>")
	}
	path := args[0]

	f, err := readKeyFile(path)
	if err != nil {
		return err
	}

	macKey, err := mac.GenerateKeyPair(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate replacement MAC key: %w", err)
	}
	if err := macKeyToFile(macKey, &f); err != nil {
		return fmt.Errorf("encode MAC key: %w", err)
	}
	if err := writeKeyFile(path, f); err != nil {
		return err
	}

	fmt.Printf("MAC key rotated in place in %s (signing key unchanged)\n", path)
	return nil
}

func cmdExportPublic(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: acdp-keygen export-public <key-file>")
	}
	f, err := readKeyFile(args[0])
	if err != nil {
		return err
	}

	out := struct {
		PublicKey   string `json:"public_key"`
		MACPublicX0 string `json:"mac_public_x0"`
		MACPublicX1 string `json:"mac_public_x1"`
		MACPublicX2 string `json:"mac_public_x2"`
	}{
		PublicKey:   f.PublicKey,
		MACPublicX0: f.MACPublicX0,
		MACPublicX1: f.MACPublicX1,
		MACPublicX2: f.MACPublicX2,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal public material: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
