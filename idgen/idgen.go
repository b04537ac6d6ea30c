// Package idgen produces human-friendly article ids of the form
// adjective-adjective-animal.
package idgen

import (
	"math/rand/v2"
	"strings"
	"sync"
)

var adjectives = strings.Split("able,absolute,acclaimed,accurate,acrobatic,active,adept,admirable,"+
	"adorable,advanced,agile,agreeable,alert,alive,amazing,ambitious,ample,amused,ancient,"+
	"angelic,animated,antique,aromatic,artistic,assured,athletic,attentive,austere,authentic,"+
	"awesome,basic,beautiful,beloved,best,big,bold,bouncy,bountiful,brave,bright,brilliant,"+
	"brisk,bronze,bubbly,buoyant,bustling,buttery,calm,candid,careful,caring,charming,cheerful,"+
	"chilly,classic,clean,clear,clever,cloudy,colorful,colossal,content,cool,courteous,crafty,"+
	"creamy,creative,crisp,cuddly,curly,cute,dapper,daring,dazzling,decisive,deep,delightful,"+
	"dependable,devoted,diligent,dizzy,dreamy,dutiful,eager,earnest,early,easy,elastic,elegant,"+
	"eminent,enchanted,energetic,enormous,esteemed,even,evergreen,excellent,exotic,expert,"+
	"fabulous,fair,faithful,famous,fancy,fantastic,fast,fearless,feisty,fine,firm,flashy,"+
	"fluffy,fond,fragrant,frank,free,fresh,friendly,frosty,frugal,funny,fuzzy,gentle,genuine,"+
	"giant,gifted,gleaming,glorious,glossy,golden,graceful,gracious,grand,grateful,great,green,"+
	"happy,hardy,harmonious,hasty,healthy,hearty,helpful,honest,hopeful,humble,icy,ideal,"+
	"immense,impish,jolly,jovial,joyful,jubilant,juicy,jumbo,keen,kind,knowing,lavish,leafy,"+
	"light,likable,little,lively,lovely,loyal,lucky,luminous,lustrous,majestic,mellow,merry,"+
	"mighty,mild,minty,modest,nautical,neat,nifty,nimble,noble,novel,oblong,optimal,orange,"+
	"orderly,organic,patient,peaceful,perky,playful,pleasant,plucky,plush,polished,polite,"+
	"precious,pristine,proud,prudent,punctual,quaint,quick,quiet,quirky,radiant,rapid,rare,"+
	"ready,regal,reliable,robust,rosy,round,royal,rustic,salty,sandy,serene,sharp,shiny,silky,"+
	"silver,simple,sleepy,sly,smart,smooth,snappy,snug,soft,solid,sparkling,speedy,spicy,"+
	"spirited,splendid,spotless,spry,square,stable,starry,steady,stellar,sturdy,stylish,subtle,"+
	"sunny,super,superb,sweet,swift,tall,tame,tangy,tender,terrific,thankful,thoughtful,thrifty,"+
	"tidy,timely,tiny,tough,tranquil,trusty,upbeat,urban,valiant,vast,velvety,vibrant,vigilant,"+
	"vivid,warm,wary,wavy,whimsical,wise,witty,wonderful,worthy,young,youthful,zany,zealous,"+
	"zesty,zippy", ",")

var animals = strings.Split("aardvark,albatross,alligator,alpaca,ant,anteater,antelope,ape,armadillo,"+
	"baboon,badger,barracuda,bat,bear,beaver,bee,bison,boar,butterfly,camel,caribou,cassowary,"+
	"cat,caterpillar,chamois,cheetah,chicken,chimpanzee,chinchilla,chough,coati,cobra,cod,"+
	"cormorant,coyote,crab,crocodile,crow,curlew,deer,dinosaur,dog,dolphin,donkey,dotterel,"+
	"dove,dragonfly,duck,dugong,dunlin,eagle,echidna,eel,elephant,elk,emu,falcon,ferret,finch,"+
	"fish,flamingo,fox,frog,gaur,gazelle,gerbil,giraffe,gnat,goat,goose,gorilla,goshawk,"+
	"grasshopper,grouse,guanaco,gull,hamster,hare,hawk,hedgehog,heron,herring,hippopotamus,"+
	"hornet,horse,hummingbird,hyena,ibex,ibis,jackal,jaguar,jay,jellyfish,kangaroo,kinkajou,"+
	"koala,kouprey,kudu,lapwing,lark,lemur,leopard,lion,llama,lobster,locust,loris,lyrebird,"+
	"magpie,mallard,manatee,mandrill,mink,mongoose,monkey,moose,mouse,narwhal,newt,nightingale,"+
	"octopus,okapi,opossum,ostrich,otter,owl,oyster,parrot,panda,partridge,peafowl,pelican,"+
	"penguin,pheasant,pigeon,pony,porcupine,porpoise,quail,quelea,quetzal,rabbit,raccoon,"+
	"raven,reindeer,rhinoceros,salamander,salmon,sandpiper,sardine,seahorse,shark,sheep,shrew,"+
	"skunk,sloth,snail,snake,spider,squirrel,starling,swan,tapir,tarsier,termite,tiger,toad,"+
	"turtle,wallaby,walrus,wasp,weasel,whale,wolf,wolverine,wombat,wren,yak,zebra", ",")

// Generator draws ids from a random source. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a generator. A nil source uses a randomly seeded one.
func New(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rnd: rand.New(src)}
}

// Generate returns an id such as "brisk-jolly-otter".
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return strings.Join([]string{
		adjectives[g.rnd.IntN(len(adjectives))],
		adjectives[g.rnd.IntN(len(adjectives))],
		animals[g.rnd.IntN(len(animals))],
	}, "-")
}
