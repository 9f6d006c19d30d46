// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	clientID     string
	clientSecret string
	tokenURL     string
	issuerURL    string
	scopes       []string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Get an access token using Client Credentials flow",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if tokenURL == "" {
			if issuerURL == "" {
				log.Fatal("Either --token-url or --issuer-url must be provided")
			}

			// Discovery endpoint
			provider, err := oidc.NewProvider(ctx, issuerURL)
			if err != nil {
				log.Fatalf("Failed to create OIDC provider from issuer: %v", err)
			}
			tokenURL = provider.Endpoint().TokenURL
		}

		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}

		token, err := conf.Token(ctx)
		if err != nil {
			log.Fatalf("Failed to get token: %v", err)
		}

		fmt.Println(token.AccessToken)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	tokenCmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	tokenCmd.Flags().StringVar(&tokenURL, "token-url", "", "OAuth2 token endpoint")
	tokenCmd.Flags().StringVar(&issuerURL, "issuer-url", "", "OIDC issuer for token endpoint discovery")
	tokenCmd.Flags().StringSliceVar(&scopes, "scopes", nil, "OAuth2 scopes to request")
	_ = tokenCmd.MarkFlagRequired("client-id")
	_ = tokenCmd.MarkFlagRequired("client-secret")

	rootCmd.AddCommand(tokenCmd)
}
