package urlutil

import (
	"regexp"
	"strings"
)

// IgnoreDomains are general reference and social sites whose search hits
// never identify the brand that owns a logo.
var IgnoreDomains = []string{
	"wikipedia", "wiki", "bloomberg", "glassdoor",
	"linkedin", "jobstreet", "facebook", "twitter",
	"instagram", "youtube", "org", "accounting",
}

// WebHostingDomains are hosting and placeholder providers. Pages served from
// them represent the hosting platform, not the brand under evaluation.
var WebHostingDomains = []string{
	"godaddy", "roundcube", "clouddns", "namecheap", "plesk", "rackspace",
	"cpanel", "virtualmin", "control-webpanel", "hostgator", "mirohost",
	"hostinger", "bisecthosting", "misshosting", "serveriai", "register",
	"appspot", "weebly", "serv5", "umbler", "joomla", "webnode", "duckdns",
	"moonfruit", "netlify", "glitch", "herokuapp", "yolasite", "dynv6",
	"cdnvn", "surge", "myshn", "azurewebsites", "dreamhost", "proisp",
	"accounting",
}

var webHostingFragments = []string{
	`webmail.*`, `.*godaddy.*`, `.*roundcube.*`, `.*clouddns.*`, `.*namecheap.*`,
	`.*plesk.*`, `.*rackspace.*`, `.*cpanel.*`, `.*virtualmin.*`, `.*control.*webpanel.*`,
	`.*hostgator.*`, `.*mirohost.*`, `.*hostinger.*`, `.*bisecthosting.*`, `.*misshosting.*`,
	`.*serveriai.*`, `register\.to.*`, `.*appspot.*`, `.*weebly.*`, `.*serv5.*`,
	`.*umbler.*`, `.*joomla.*`, `.*webnode.*`, `.*duckdns.*`, `.*moonfruit.*`,
	`.*netlify.*`, `.*glitch.*`, `.*herokuapp.*`, `.*yolasite.*`, `.*dynv6.*`,
	`.*cdnvn.*`, `.*surge.*`, `.*myshn.*`, `.*azurewebsites.*`, `.*dreamhost.*`,
	`host`, `cloak`, `domain`, `block`, `isp`, `azure`, `wordpress`,
	`weebly`, `dns`, `network`, `shortener`, `server`, `helpdesk`,
	`laravel`, `jellyfin`, `portainer`, `reddit`, `storybook`,
}

// WebHostingTitle matches page titles of parked and hosting-provider
// placeholder pages.
var WebHostingTitle = regexp.MustCompile(`(?i)(?:` + strings.Join(webHostingFragments, ")|(?:") + `)`)

// IsHostingTitle reports whether a page title looks like a web-hosting or
// domain-parking placeholder.
func IsHostingTitle(title string) bool {
	return WebHostingTitle.MatchString(title)
}
