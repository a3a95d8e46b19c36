// Command stockdesk is the inventory console.
//
//	stockdesk serve                      # console API on CONSOLE_PORT
//	stockdesk route:list                 # list the console routes
//	stockdesk products --page 2          # one page of the product list
//	stockdesk variants 11                # variants of product 11
//	stockdesk product:validate tee.yaml  # check a product draft locally
//	stockdesk product:create tee.yaml    # validate and submit a draft
//	stockdesk variant:create 11 m.yaml   # add one variant to product 11
//	stockdesk stock:update 3 --type sale --amount 2 --current 10
//	stockdesk stock:apply count.yaml     # apply a batch of stock changes
//	stockdesk stock:report --from 2024-03-01 --type sale --export march.csv
//
// Drafts and batches are YAML files. Image fields name files on the default
// storage disk.
package main
